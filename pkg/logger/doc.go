// Package logger builds *slog.Logger instances with environment presets,
// shared attribute helpers and attributes pulled from context.Context.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.AppEnv, "lessonkit"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "invite created", logger.TeamID(team.ID))
//
// Production and staging log JSON at info level, everything else logs text at
// debug level. Attribute helpers keep key names consistent across packages.
package logger
