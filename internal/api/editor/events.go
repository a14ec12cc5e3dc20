package editor

import (
	"context"
	"maps"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/mapstyle"
	"github.com/joeblew999/plat-style/internal/service"
)

// MapStyleHandler streams map style state to the Datastar UI and accepts
// edits from it.
type MapStyleHandler struct {
	svc *service.MapStyleService
	bus *service.EventBus
}

// NewMapStyleHandler creates a new map style handler.
func NewMapStyleHandler(svc *service.MapStyleService, bus *service.EventBus) *MapStyleHandler {
	return &MapStyleHandler{svc: svc, bus: bus}
}

func (h *MapStyleHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/mapstyle/events", h.Events, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/mapstyle/input", h.EditInput, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/mapstyle/input/commit", h.CommitInput, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/mapstyle/groups", h.ToggleGroups, huma.OperationTags("editor"))
}

// Events sends the current state, then a patch after every change.
func (h *MapStyleHandler) Events(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return Stream(func(sse SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)

		if err := sse.Signals(StateSignals(h.svc.State(), h.svc.LastLoadError())); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				signals := StateSignals(h.svc.State(), h.svc.LastLoadError())
				if ev.Action == service.ActionLoadFailed && ev.Resource == "input" {
					signals["inputerror"] = ev.Err
				}
				if err := sse.Signals(signals); err != nil {
					return
				}
			}
		}
	}), nil
}

// EditInput applies the custom style dialog signals.
func (h *MapStyleHandler) EditInput(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	st := h.svc.EditInputStyle(signals.InputStyleEdit())

	return Stream(func(sse SSE) {
		_ = sse.Signals(InputSignals(st.InputStyle))
	}), nil
}

// CommitInput registers the staged custom style.
func (h *MapStyleHandler) CommitInput(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	st, err := h.svc.CommitCustomStyle()
	return Stream(func(sse SSE) {
		if err != nil {
			_ = sse.Error(err.Error())
			return
		}
		signals := StateSignals(st, h.svc.LastLoadError())
		maps.Copy(signals, InputSignals(st.InputStyle))
		_ = sse.Signals(signals)
		_ = sse.Success("Added map style " + st.MapStyles[st.StyleType].Label)
	}), nil
}

// ToggleGroups applies group_<slug> and top_<slug> checkbox signals.
func (h *MapStyleHandler) ToggleGroups(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	st := h.svc.ChangeVisibility(signals.VisibilityChanges)

	return Stream(func(sse SSE) {
		_ = sse.Signals(StateSignals(st, h.svc.LastLoadError()))
	}), nil
}

// StateSignals flattens the state into Datastar signals.
func StateSignals(st mapstyle.State, loadErr error) map[string]any {
	signals := map[string]any{
		"styletype":           st.StyleType,
		"editable":            st.Editable,
		"threedbuildingcolor": st.ThreeDBuildingColor.Hex(),
		"hastopmap":           st.TopMapStyle != nil,
		"loaderror":           "",
	}
	if loadErr != nil {
		signals["loaderror"] = loadErr.Error()
	}
	if def, ok := st.Active(); ok {
		signals["stylelabel"] = def.Label
		signals["styleloaded"] = def.Resolved()
	}
	for _, g := range mapstyle.DefaultLayerGroups {
		if v, ok := st.VisibleLayerGroups[g.Slug]; ok {
			signals[groupSignal("group_", g.Slug)] = v
		}
		if v, ok := st.TopLayerGroups[g.Slug]; ok {
			signals[groupSignal("top_", g.Slug)] = v
		}
	}
	return signals
}

// InputSignals flattens the custom style dialog into Datastar signals.
func InputSignals(in mapstyle.InputStyle) map[string]any {
	return map[string]any{
		SignalInputURL:   in.URL,
		SignalInputLabel: in.Label,
		SignalInputIcon:  in.Icon,
		"inputid":        in.ID,
		"inputvalid":     in.IsValid,
		"inputloaded":    in.Style != nil,
		"inputerror":     in.Error,
	}
}

// groupSignal maps "3d building" to "group_3d_building".
func groupSignal(prefix, slug string) string {
	return prefix + strings.ReplaceAll(slug, " ", "_")
}

func cloneVisibility(v mapstyle.VisibilityMap) mapstyle.VisibilityMap {
	if v == nil {
		return mapstyle.VisibilityMap{}
	}
	return maps.Clone(v)
}
