// Package health serves the relay's liveness, readiness and version
// endpoints on the admin server.
//
// Readiness aggregates named checks registered by the components that own
// them: the configuration store, the relay listener and, when the session
// journal is enabled, its storage backend.
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("config", health.ConfigCheck(store))
//	health.Mount(mux, checker, version, commit, buildTime)
package health
