package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("mongo: connection failed after retries")
	ErrEmptyDatabase          = errors.New("mongo: database name is empty, set MONGODB_DATABASE")
	ErrHealthcheckFailed      = errors.New("mongo: primary not reachable")
)
