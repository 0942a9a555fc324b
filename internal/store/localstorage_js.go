//go:build js && wasm

package store

import (
	"fmt"
	"strings"
	"syscall/js"
)

// LocalStorageMedium is a Medium over the browser's window.localStorage.
// The browser enforces its own per-origin quota.
type LocalStorageMedium struct {
	ls js.Value
}

// NewLocalStorageMedium binds to window.localStorage.
func NewLocalStorageMedium() (*LocalStorageMedium, error) {
	ls := js.Global().Get("localStorage")
	if ls.IsUndefined() || ls.IsNull() {
		return nil, fmt.Errorf("localStorage is not available")
	}
	return &LocalStorageMedium{ls: ls}, nil
}

// call invokes a localStorage method, turning a thrown DOMException into an error.
func (m *LocalStorageMedium) call(method string, args ...any) (v js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			jsErr, ok := r.(js.Error)
			if !ok {
				err = fmt.Errorf("localStorage.%s: %v", method, r)
				return
			}
			name := jsErr.Value.Get("name").String()
			if name == "QuotaExceededError" || strings.Contains(jsErr.Error(), "quota") {
				err = fmt.Errorf("localStorage.%s: %w", method, ErrQuotaExceeded)
				return
			}
			err = fmt.Errorf("localStorage.%s: %s", method, jsErr.Error())
		}
	}()
	return m.ls.Call(method, args...), nil
}

func (m *LocalStorageMedium) Get(key string) (string, bool, error) {
	v, err := m.call("getItem", key)
	if err != nil {
		return "", false, err
	}
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (m *LocalStorageMedium) Set(key, value string) error {
	_, err := m.call("setItem", key, value)
	return err
}

func (m *LocalStorageMedium) Remove(key string) error {
	_, err := m.call("removeItem", key)
	return err
}

func (m *LocalStorageMedium) Keys() ([]string, error) {
	n := m.ls.Get("length").Int()
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k, err := m.call("key", i)
		if err != nil {
			return nil, err
		}
		if !k.IsNull() {
			keys = append(keys, k.String())
		}
	}
	return keys, nil
}

var _ Medium = (*LocalStorageMedium)(nil)
