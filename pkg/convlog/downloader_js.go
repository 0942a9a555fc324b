//go:build js && wasm

package convlog

import (
	"fmt"
	"syscall/js"
)

// BrowserDownloader saves a transcript through a temporary Blob URL and a
// synthetic anchor click.
type BrowserDownloader struct{}

func (BrowserDownloader) Download(content, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("download %s: %v", name, r)
		}
	}()

	global := js.Global()
	doc := global.Get("document")
	urlAPI := global.Get("URL")

	parts := js.Global().Get("Array").New(content)
	blob := global.Get("Blob").New(parts, map[string]any{"type": "text/plain"})
	href := urlAPI.Call("createObjectURL", blob)
	defer urlAPI.Call("revokeObjectURL", href)

	a := doc.Call("createElement", "a")
	a.Set("href", href)
	a.Set("download", name)
	body := doc.Get("body")
	body.Call("appendChild", a)
	a.Call("click")
	body.Call("removeChild", a)
	return nil
}
