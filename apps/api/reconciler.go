package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/certificate"
)

const reconcileTimeout = 5 * time.Minute

// newReconciler schedules the issuance of the certificates missed at completion time.
// An empty spec returns a scheduler without jobs.
func newReconciler(spec string, svc *certificate.Service, logger core.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})))
	if spec == "" {
		logger.Info("certificate reconciler disabled")
		return c, nil
	}
	if _, err := c.AddFunc(spec, func() { reconcile(svc, logger, reconcileTimeout) }); err != nil {
		return nil, err
	}
	return c, nil
}

func reconcile(svc *certificate.Service, logger core.Logger, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	count, err := svc.Reconcile(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("reconciling certificates: %v", err), err)
	}
	if count > 0 {
		logger.Info(fmt.Sprintf("reconciler issued %d certificate(s)", count))
	}
	return count
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, fields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		m[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return m
}
