package notify

import (
	"github.com/sirupsen/logrus"

	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// LogNotifier writes status updates to the application log.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: utils.GetLogger()}
}

// Notify logs the status at a level matching its outcome.
func (n *LogNotifier) Notify(status Status) {
	entry := n.logger.WithFields(logrus.Fields{
		"operation": status.Kind,
		"terminal":  status.Terminal,
	})

	switch {
	case !status.Terminal:
		entry.Info(status.Message)
	case status.Succeeded:
		entry.Info(status.Message)
	default:
		entry.WithField("error_code", status.ErrorCode).Warn(status.Message)
	}
}
