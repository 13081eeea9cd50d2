package utils

import "fmt"

// ReturnPanic must be deferred directly. It turns a panic into an error stored in ptr
func ReturnPanic(ptr *error) {
	switch r := recover().(type) {
	case nil:
	case error:
		*ptr = r
	default:
		*ptr = fmt.Errorf("panic: %v", r)
	}
}

func Must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}
