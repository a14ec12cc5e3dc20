package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/db"
)

type SnapshotsOutput struct {
	Body PageBody[db.Snapshot]
}

type SnapshotOutput struct {
	Body db.Snapshot
}

// RegisterSnapshots registers the saved config routes.
func (h *APIHandler) RegisterSnapshots(api huma.API) {
	huma.Get(api, "/api/v1/mapstyle/snapshots", h.ListSnapshots, huma.OperationTags("snapshots"))
	huma.Get(api, "/api/v1/mapstyle/snapshots/{name}", h.GetSnapshot, huma.OperationTags("snapshots"))
	huma.Put(api, "/api/v1/mapstyle/snapshots/{name}", h.PutSnapshot, huma.OperationTags("snapshots"))
	huma.Delete(api, "/api/v1/mapstyle/snapshots/{name}", h.DeleteSnapshot, huma.OperationTags("snapshots"))
	huma.Post(api, "/api/v1/mapstyle/snapshots/{name}/apply", h.ApplySnapshot, huma.OperationTags("snapshots"))
}

// ListSnapshots returns a page of stored snapshots in name order.
func (h *APIHandler) ListSnapshots(ctx context.Context, input *PageInput) (*SnapshotsOutput, error) {
	if err := h.snapshotsReady(); err != nil {
		return nil, err
	}
	snaps, err := h.svc.Snapshots.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list snapshots", err)
	}
	return &SnapshotsOutput{Body: Paginate(snaps, *input)}, nil
}

// GetSnapshot returns the config stored under a name.
func (h *APIHandler) GetSnapshot(ctx context.Context, input *NameInput) (*ExportOutput, error) {
	if err := h.snapshotsReady(); err != nil {
		return nil, err
	}
	cfg, err := h.svc.Snapshots.Load(ctx, input.Name)
	if err != nil {
		return nil, snapshotError(err)
	}
	return &ExportOutput{Body: cfg}, nil
}

// PutSnapshot stores the current config under a name.
func (h *APIHandler) PutSnapshot(ctx context.Context, input *NameInput) (*SnapshotOutput, error) {
	if err := h.snapshotsReady(); err != nil {
		return nil, err
	}
	snap, err := h.svc.Snapshots.Save(ctx, input.Name, h.svc.MapStyle.Export())
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to save snapshot", err)
	}
	return &SnapshotOutput{Body: snap}, nil
}

// DeleteSnapshot removes a snapshot.
func (h *APIHandler) DeleteSnapshot(ctx context.Context, input *NameInput) (*struct{ Body MessageBody }, error) {
	if err := h.snapshotsReady(); err != nil {
		return nil, err
	}
	if err := h.svc.Snapshots.Delete(ctx, input.Name); err != nil {
		return nil, snapshotError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Snapshot deleted"}}, nil
}

// ApplySnapshot restores a stored config.
func (h *APIHandler) ApplySnapshot(ctx context.Context, input *NameInput) (*StateOutput, error) {
	if err := h.snapshotsReady(); err != nil {
		return nil, err
	}
	cfg, err := h.svc.Snapshots.Load(ctx, input.Name)
	if err != nil {
		return nil, snapshotError(err)
	}
	return h.stateOutput(h.svc.MapStyle.ReceiveSavedConfig(cfg)), nil
}

func (h *APIHandler) snapshotsReady() error {
	if err := h.ready(); err != nil {
		return err
	}
	if h.svc.Snapshots == nil {
		return huma.Error503ServiceUnavailable("Database not available")
	}
	return nil
}

func snapshotError(err error) error {
	if errors.Is(err, db.ErrSnapshotNotFound) {
		return huma.Error404NotFound(err.Error())
	}
	return huma.Error500InternalServerError("Snapshot store failed", err)
}
