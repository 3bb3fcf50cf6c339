// Package logging configures the process-wide log/slog logger.
//
// New builds a JSON or text handler at a parsed level. The level lives in a
// slog.LevelVar so a configuration reload can change it in place with
// SetLevel. Install makes the logger the slog default; components then take
// their own child logger:
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//		return err
//	}
//	logger.Install()
//	log := logging.Component("catalog")
//
// Records logged with a context carry the request_id and route stored by
// WithRequestID and WithRoute.
//
// With RedactSecrets enabled, attributes whose key names a secret are
// replaced by "***" and credentials embedded in DSNs or error messages are
// masked.
package logging
