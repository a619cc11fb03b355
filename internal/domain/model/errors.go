package model

import "errors"

var errNotObject = errors.New("value is not an object")
