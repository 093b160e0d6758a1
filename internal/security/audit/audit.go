package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger writes structured audit records for every post and upload
// mutation. Audit entries go to the normal log stream under the "audit"
// message so they can be filtered downstream.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, vendorID, configID, action, resource, resourceID, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("vendor_id", vendorID),
		slog.String("config_id", configID),
		slog.String("status", status),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogPostMutation(ctx context.Context, vendorID, configID, action, postID, status string) {
	al.LogAction(ctx, vendorID, configID, action, "post", postID, status)
}

func (al *Logger) LogUpload(ctx context.Context, vendorID, configID, postID, status string) {
	al.LogAction(ctx, vendorID, configID, "upload_image", "post", postID, status)
}

func (al *Logger) LogDenied(ctx context.Context, vendorID, reason string) {
	al.logger.Warn("audit",
		slog.String("action", "access_denied"),
		slog.String("vendor_id", vendorID),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now()),
	)
}
