// Package mongo connects to MongoDB with retry and exposes a readiness probe.
//
//	db, err := mongo.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	ready := mongo.Healthcheck(db.Client(), 2*time.Second)
//
// Connection failures are reported as ErrFailedToConnectToMongo joined with
// the last driver error.
package mongo
