package mongostore

import "errors"

var ErrIndexCreation = errors.New("mongostore: failed to create indexes")
