// Package health runs readiness checks for the components the service
// depends on.
//
// Components register a CheckFunc under a name; CheckReadiness runs every
// check concurrently, each bounded by the checker's timeout, and reports the
// service ready only when all of them pass.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("database", engine.Ping)
//
//	status := checker.CheckReadiness(ctx)
//	if !status.Ready() {
//	    // respond 503
//	}
//
// The liveness answer of /health is fixed and does not consult the checker:
// the process answers even when the data engine is down.
package health
