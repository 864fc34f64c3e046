package otel

import (
	"go.opentelemetry.io/otel/attribute"
)

type KeyValue = attribute.KeyValue

func Int(key string, val int) KeyValue {
	return attribute.Int(key, val)
}
