// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/db"
	"github.com/joeblew999/plat-style/internal/mapstyle"
	"github.com/joeblew999/plat-style/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	MapStyle  *service.MapStyleService
	Files     *service.StyleFileService
	Snapshots *db.SnapshotStore
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Style ID" example:"dark"`
}

type NameInput struct {
	Name string `path:"name" minLength:"1" maxLength:"100" doc:"Snapshot name" example:"night-ops"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// StateBody is the public view of the map style state.
type StateBody struct {
	StyleType           string                 `json:"styleType" doc:"Selected style ID" example:"dark"`
	Editable            bool                   `json:"editable" doc:"Whether the bottom map has layer group visibility applied"`
	VisibleLayerGroups  mapstyle.VisibilityMap `json:"visibleLayerGroups" doc:"Bottom map layer group visibility"`
	TopLayerGroups      mapstyle.VisibilityMap `json:"topLayerGroups" doc:"Top map layer group visibility"`
	ThreeDBuildingColor mapstyle.RGB           `json:"threeDBuildingColor" doc:"Color for extruded buildings" example:"[224,221,214]"`
	HasTopMap           bool                   `json:"hasTopMap" doc:"Whether a top map style is rendered"`
	LoadError           string                 `json:"loadError,omitempty" doc:"Last style download error"`
	Styles              []service.StyleSummary `json:"styles" doc:"Registered styles"`
	InputStyle          InputStyleBody         `json:"inputStyle" doc:"Custom style dialog state"`
}

// InputStyleBody is the custom style dialog without its document.
type InputStyleBody struct {
	ID          string   `json:"id,omitempty" doc:"Style ID taken from the document"`
	Label       string   `json:"label,omitempty" doc:"Display name"`
	URL         string   `json:"url,omitempty" doc:"Style URL"`
	Icon        string   `json:"icon,omitempty" doc:"Preview image URL"`
	IsValid     bool     `json:"isValid" doc:"Whether the URL is a valid style URL"`
	Loaded      bool     `json:"loaded" doc:"Whether the document has been loaded"`
	LayerGroups []string `json:"layerGroups,omitempty" doc:"Layer groups present in the document"`
	Error       string   `json:"error,omitempty" doc:"Load error"`
}

type StateOutput struct {
	Body StateBody
}

// ConfigChangeBody is a partial config update.
type ConfigChangeBody struct {
	StyleType          *string                `json:"styleType,omitempty" doc:"Style ID to select"`
	VisibleLayerGroups mapstyle.VisibilityMap `json:"visibleLayerGroups,omitempty" doc:"Bottom map layer group visibility"`
	TopLayerGroups     mapstyle.VisibilityMap `json:"topLayerGroups,omitempty" doc:"Top map layer group visibility"`
}

// InputStyleEditBody is a partial update of the custom style dialog.
type InputStyleEditBody struct {
	URL         *string `json:"url,omitempty" doc:"Style URL" example:"mapbox://styles/uberdata/cjoqbbf6l9k302sl96tyvka09"`
	Label       *string `json:"label,omitempty" maxLength:"100" doc:"Display name"`
	Icon        *string `json:"icon,omitempty" doc:"Preview image URL"`
	AccessToken *string `json:"accessToken,omitempty" doc:"Mapbox access token for this style"`
}

type DocumentInput struct {
	Role string `query:"role" enum:"bottom,top" default:"bottom" doc:"Which map to return"`
}

type DocumentOutput struct {
	Body any
}

type ExportOutput struct {
	Body any
}

type RawInput struct {
	RawBody []byte
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMapStyle registers the map style state routes.
func (h *APIHandler) RegisterMapStyle(api huma.API) {
	huma.Get(api, "/api/v1/mapstyle", h.GetState, huma.OperationTags("mapstyle"))
	huma.Get(api, "/api/v1/mapstyle/document", h.GetDocument, huma.OperationTags("mapstyle"))
	huma.Get(api, "/api/v1/mapstyle/styles", h.GetStyles, huma.OperationTags("mapstyle"))
	huma.Put(api, "/api/v1/mapstyle/style/{id}", h.PutStyle, huma.OperationTags("mapstyle"))
	huma.Patch(api, "/api/v1/mapstyle/config", h.PatchConfig, huma.OperationTags("mapstyle"))
	huma.Post(api, "/api/v1/mapstyle/reset", h.Reset, huma.OperationTags("mapstyle"))
	huma.Get(api, "/api/v1/mapstyle/export", h.Export, huma.OperationTags("mapstyle"))
	huma.Post(api, "/api/v1/mapstyle/import", h.Import, huma.OperationTags("mapstyle"))
}

// RegisterInput registers the custom style dialog routes.
func (h *APIHandler) RegisterInput(api huma.API) {
	huma.Patch(api, "/api/v1/mapstyle/input", h.PatchInput, huma.OperationTags("input"))
	huma.Put(api, "/api/v1/mapstyle/input/style", h.PutInputStyle, huma.OperationTags("input"))
	huma.Post(api, "/api/v1/mapstyle/input/commit", h.CommitInput, huma.OperationTags("input"))
}

// RegisterFiles registers local style file routes.
func (h *APIHandler) RegisterFiles(api huma.API) {
	huma.Get(api, "/api/v1/mapstyle/files", h.GetFiles, huma.OperationTags("files"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetState(ctx context.Context, input *struct{}) (*StateOutput, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	return h.stateOutput(h.svc.MapStyle.State()), nil
}

func (h *APIHandler) GetDocument(ctx context.Context, input *DocumentInput) (*DocumentOutput, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	st := h.svc.MapStyle.State()
	doc := st.BottomMapStyle
	if input.Role == mapstyle.RoleTop.String() {
		doc = st.TopMapStyle
	}
	if doc == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("no %s map style for %q", input.Role, st.StyleType))
	}
	return &DocumentOutput{Body: doc}, nil
}

func (h *APIHandler) GetStyles(ctx context.Context, input *struct{}) (*struct{ Body []service.StyleSummary }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	return &struct{ Body []service.StyleSummary }{Body: service.Summaries(h.svc.MapStyle.State())}, nil
}

func (h *APIHandler) PutStyle(ctx context.Context, input *IDInput) (*StateOutput, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	st, err := h.svc.MapStyle.ChangeStyle(input.ID)
	if errors.Is(err, mapstyle.ErrStyleNotFound) {
		return nil, huma.Error404NotFound(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("change style", err)
	}
	if st.StyleType != input.ID {
		return nil, huma.Error409Conflict(fmt.Sprintf("style %q is not loaded yet", input.ID))
	}
	return h.stateOutput(st), nil
}

func (h *APIHandler) PatchConfig(ctx context.Context, input *struct{ Body ConfigChangeBody }) (*StateOutput, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	st := h.svc.MapStyle.ChangeConfig(mapstyle.ConfigChange{
		StyleType:          input.Body.StyleType,
		VisibleLayerGroups: input.Body.VisibleLayerGroups,
		TopLayerGroups:     input.Body.TopLayerGroups,
	})
	return h.stateOutput(st), nil
}

func (h *APIHandler) Reset(ctx context.Context, input *struct{}) (*StateOutput, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	return h.stateOutput(h.svc.MapStyle.Reset()), nil
}

func (h *APIHandler) Export(ctx context.Context, input *struct{}) (*ExportOutput, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	return &ExportOutput{Body: h.svc.MapStyle.Export()}, nil
}

func (h *APIHandler) Import(ctx context.Context, input *RawInput) (*StateOutput, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	var cfg mapstyle.SavedConfig
	if err := json.Unmarshal(input.RawBody, &cfg); err != nil {
		return nil, huma.Error400BadRequest("invalid config: " + err.Error())
	}
	if cfg.MapStyle == nil {
		return nil, huma.Error422UnprocessableEntity("config has no mapStyle section")
	}
	return h.stateOutput(h.svc.MapStyle.ReceiveSavedConfig(cfg)), nil
}

func (h *APIHandler) PatchInput(ctx context.Context, input *struct{ Body InputStyleEditBody }) (*struct{ Body InputStyleBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	b := input.Body
	st := h.svc.MapStyle.EditInputStyle(mapstyle.InputStyleEdit{
		URL:         b.URL,
		Label:       b.Label,
		Icon:        b.Icon,
		AccessToken: b.AccessToken,
	})
	return &struct{ Body InputStyleBody }{Body: inputStyleBody(st.InputStyle)}, nil
}

func (h *APIHandler) PutInputStyle(ctx context.Context, input *RawInput) (*struct{ Body InputStyleBody }, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	doc, err := mapstyle.ParseDocument(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	st := h.svc.MapStyle.ResolveInputStyle(mapstyle.InputStyleResult{Style: doc})
	return &struct{ Body InputStyleBody }{Body: inputStyleBody(st.InputStyle)}, nil
}

func (h *APIHandler) CommitInput(ctx context.Context, input *struct{}) (*StateOutput, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	st, err := h.svc.MapStyle.CommitCustomStyle()
	if errors.Is(err, service.ErrNoInputStyle) || errors.Is(err, service.ErrInputStyleInvalid) {
		return nil, huma.Error409Conflict(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("commit style", err)
	}
	return h.stateOutput(st), nil
}

func (h *APIHandler) GetFiles(ctx context.Context, input *struct{}) (*struct{ Body []service.StyleFile }, error) {
	if h.svc == nil || h.svc.Files == nil {
		return &struct{ Body []service.StyleFile }{Body: []service.StyleFile{}}, nil
	}
	files, err := h.svc.Files.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("list style files", err)
	}
	return &struct{ Body []service.StyleFile }{Body: files}, nil
}

func (h *APIHandler) ready() error {
	if h.svc == nil || h.svc.MapStyle == nil {
		return huma.Error503ServiceUnavailable("map style service not available")
	}
	return nil
}

func (h *APIHandler) stateOutput(st mapstyle.State) *StateOutput {
	body := StateBody{
		StyleType:           st.StyleType,
		Editable:            st.Editable,
		VisibleLayerGroups:  st.VisibleLayerGroups,
		TopLayerGroups:      st.TopLayerGroups,
		ThreeDBuildingColor: st.ThreeDBuildingColor,
		HasTopMap:           st.TopMapStyle != nil,
		Styles:              service.Summaries(st),
		InputStyle:          inputStyleBody(st.InputStyle),
	}
	if err := h.svc.MapStyle.LastLoadError(); err != nil {
		body.LoadError = err.Error()
	}
	return &StateOutput{Body: body}
}

func inputStyleBody(in mapstyle.InputStyle) InputStyleBody {
	return InputStyleBody{
		ID:          in.ID,
		Label:       in.Label,
		URL:         in.URL,
		Icon:        in.Icon,
		IsValid:     in.IsValid,
		Loaded:      in.Style != nil,
		LayerGroups: in.LayerGroups,
		Error:       in.Error,
	}
}
