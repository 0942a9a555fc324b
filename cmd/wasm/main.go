//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/app"
	"github.com/kittclouds/okai/internal/config"
	"github.com/kittclouds/okai/internal/logging"
	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/convlog"
	"github.com/kittclouds/okai/pkg/knowledge"
	"github.com/kittclouds/okai/pkg/models"
	"github.com/kittclouds/okai/pkg/notify"
	"github.com/kittclouds/okai/pkg/persona"
	"github.com/kittclouds/okai/pkg/restore"
)

// Version info
const Version = "1.0.0"

// Global state
var appCtx *app.Context
var sqlMedium *store.SQLiteMedium // set when the page chose the OPFS-backed medium
var storageListener js.Func

func main() {
	fmt.Println("[SuperOkai] WASM Ready v" + Version)

	js.Global().Set("SuperOkai", js.ValueOf(map[string]interface{}{
		"version":    js.FuncOf(getVersion),
		"initialize": js.FuncOf(initialize),
		"onChange":   js.FuncOf(onChange),
		// Personas
		"personasList":         js.FuncOf(personasList),
		"personaGet":           js.FuncOf(personaGet),
		"personaGetStore":      js.FuncOf(personaGetStore),
		"personaSave":          js.FuncOf(personaSave),
		"personaDelete":        js.FuncOf(personaDelete),
		"personaMarkAsDeleted": js.FuncOf(personaMarkAsDeleted),
		"personaDeletedIDs":    js.FuncOf(personaDeletedIDs),
		"personaClearDeleted":  js.FuncOf(personaClearDeleted),
		"personaSelected":      js.FuncOf(personaSelected),
		"personaSelect":        js.FuncOf(personaSelect),
		"restorePersonas":      js.FuncOf(restorePersonas),
		"personaOrders":        js.FuncOf(personaOrders),
		"updatePersonaOrders":  js.FuncOf(updatePersonaOrders),
		// Knowledge bases
		"knowledgeList":          js.FuncOf(knowledgeList),
		"knowledgeGet":           js.FuncOf(knowledgeGet),
		"knowledgeGetStore":      js.FuncOf(knowledgeGetStore),
		"knowledgeSave":          js.FuncOf(knowledgeSave),
		"knowledgeDelete":        js.FuncOf(knowledgeDelete),
		"knowledgeMarkAsDeleted": js.FuncOf(knowledgeMarkAsDeleted),
		"knowledgeDeletedIDs":    js.FuncOf(knowledgeDeletedIDs),
		"knowledgeClearDeleted":  js.FuncOf(knowledgeClearDeleted),
		"knowledgeExport":        js.FuncOf(knowledgeExport),
		"knowledgeImport":        js.FuncOf(knowledgeImport),
		"restoreKnowledgeBases":  js.FuncOf(restoreKnowledgeBases),
		// Conversation logs
		"logConversation":      js.FuncOf(logConversation),
		"getPersonaLogs":       js.FuncOf(getPersonaLogs),
		"getLogs":              js.FuncOf(getLogs),
		"clearPersonaLogs":     js.FuncOf(clearPersonaLogs),
		"clearAllLogs":         js.FuncOf(clearAllLogs),
		"getAvailablePersonas": js.FuncOf(getAvailablePersonas),
		"downloadPersonaLogs":  js.FuncOf(downloadPersonaLogs),
		"downloadAllLogs":      js.FuncOf(downloadAllLogs),
		// Models + chat
		"modelsList":  js.FuncOf(modelsList),
		"modelGet":    js.FuncOf(modelGet),
		"modelSelect": js.FuncOf(modelSelect),
		"setApiKey":   js.FuncOf(setAPIKey),
		"sendMessage": js.FuncOf(sendMessage),
		// Medium Export/Import (OPFS sync)
		"storeExport": js.FuncOf(storeExport),
		"storeImport": js.FuncOf(storeImport),
		"storeStats":  js.FuncOf(storeStats),
	}))

	// Prevent exit
	select {}
}

// getVersion returns the module version
func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// initialize builds the store over the chosen medium.
// Args: [configJSON string] - config.Config fields plus medium ("localStorage"
// or "sqlite"), apiKey and referer. All optional.
func initialize(this js.Value, args []js.Value) interface{} {
	var input struct {
		config.Config
		Medium  string `json:"medium"`
		APIKey  string `json:"apiKey"`
		Referer string `json:"referer"`
	}
	input.Config = config.Default()
	input.Config.Log.Format = "console"
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		if err := json.Unmarshal([]byte(args[0].String()), &input); err != nil {
			return errorResult("invalid config json: " + err.Error())
		}
	}
	if err := input.Config.Validate(); err != nil {
		return errorResult(err.Error())
	}

	logger, err := logging.New(input.Config.Log)
	if err != nil {
		return errorResult(err.Error())
	}

	medium, err := openMedium(input.Medium, input.Config.CapacityBytes)
	if err != nil {
		return errorResult(err.Error())
	}

	if appCtx != nil {
		_ = appCtx.Close()
	}
	appCtx, err = app.New(app.Options{
		Config:     input.Config,
		Medium:     medium,
		Logger:     logger,
		Downloader: convlog.BrowserDownloader{},
	})
	if err != nil {
		return errorResult(err.Error())
	}
	if input.APIKey != "" {
		if err := appCtx.SetAPIKey(input.APIKey, input.Referer); err != nil {
			return errorResult(err.Error())
		}
	}
	listenForOtherTabs()

	return successResult(fmt.Sprintf("initialized with %d personas", len(appCtx.Personas.List())))
}

func openMedium(kind string, capacity int64) (store.Medium, error) {
	sqlMedium = nil
	switch kind {
	case "", "localStorage":
		return store.NewLocalStorageMedium()
	case "sqlite":
		m, err := store.NewSQLiteMedium(capacity)
		if err != nil {
			return nil, err
		}
		sqlMedium = m
		return m, nil
	default:
		return nil, fmt.Errorf("unknown medium %q", kind)
	}
}

// listenForOtherTabs routes window "storage" events into the app context.
// The browser only fires them for writes made by other tabs.
func listenForOtherTabs() {
	window := js.Global().Get("window")
	if storageListener.Truthy() {
		window.Call("removeEventListener", "storage", storageListener)
		storageListener.Release()
	}
	storageListener = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		key := ""
		if k := args[0].Get("key"); k.Type() == js.TypeString {
			key = k.String()
		}
		if appCtx != nil {
			appCtx.HandleExternalChange(key)
		}
		return nil
	})
	window.Call("addEventListener", "storage", storageListener)
}

// onChange registers a callback(signal, source) for every change signal.
// Returns: a function that unregisters it.
func onChange(this js.Value, args []js.Value) interface{} {
	if appCtx == nil {
		return errorResult("not initialized")
	}
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return errorResult("onChange requires a callback")
	}
	cb := args[0]
	unsubscribe := appCtx.Bus.Subscribe(func(ev notify.Event) {
		cb.Invoke(string(ev.Signal), ev.Source.String())
	})
	var off js.Func
	off = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		unsubscribe()
		off.Release()
		return nil
	})
	return off
}

// Helper: Create error result
func errorResult(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Marshal any value, or an error result
func jsonResult(v interface{}) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(jsonBytes)
}

// Helper: Marshal a batch report with its joined error
func reportResult(r restore.Report, err error) interface{} {
	failed := make(map[string]string, len(r.Failed))
	for id, e := range r.Failed {
		failed[id] = e.Error()
	}
	result := map[string]interface{}{
		"restored": r.Restored,
		"failed":   failed,
	}
	if err != nil {
		result["error"] = err.Error()
	}
	return jsonResult(result)
}

// requireArgs reports a missing-argument error result, or nil when the
// bridge is ready and enough args were passed.
func requireArgs(name string, args []js.Value, n int) interface{} {
	if appCtx == nil {
		return errorResult(name + ": not initialized")
	}
	if len(args) < n {
		return errorResult(fmt.Sprintf("%s requires %d args", name, n))
	}
	return nil
}

// makePromise creates a JS Promise and returns it along with resolve/reject functions.
func makePromise() (promise js.Value, resolve js.Value, reject js.Value) {
	var resolveFn, rejectFn js.Value
	handler := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolveFn = args[0]
		rejectFn = args[1]
		return nil
	})
	defer handler.Release()

	promise = js.Global().Get("Promise").New(handler)
	return promise, resolveFn, rejectFn
}

// =============================================================================
// Persona API
// =============================================================================

func personasList(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personasList", args, 0); res != nil {
		return res
	}
	return jsonResult(appCtx.Personas.List())
}

// Args: [id string]
func personaGet(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaGet", args, 1); res != nil {
		return res
	}
	p, ok := appCtx.Personas.Get(args[0].String())
	if !ok {
		return "null"
	}
	return jsonResult(p)
}

// Args: [id string]
func personaGetStore(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaGetStore", args, 1); res != nil {
		return res
	}
	v, ok := appCtx.Personas.GetPersonaStore(args[0].String())
	if !ok {
		return "null"
	}
	return jsonResult(v)
}

// Args: [id string, personaJSON string]
func personaSave(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaSave", args, 2); res != nil {
		return res
	}
	var p persona.Persona
	if err := json.Unmarshal([]byte(args[1].String()), &p); err != nil {
		return errorResult("invalid persona json: " + err.Error())
	}
	if err := appCtx.Personas.Save(args[0].String(), p); err != nil {
		return errorResult(err.Error())
	}
	return successResult("saved")
}

// Args: [id string]
func personaDelete(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaDelete", args, 1); res != nil {
		return res
	}
	if err := appCtx.Personas.Delete(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted")
}

// Args: [id string]
func personaMarkAsDeleted(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaMarkAsDeleted", args, 1); res != nil {
		return res
	}
	if err := appCtx.Personas.Store().MarkAsDeleted(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("marked")
}

func personaDeletedIDs(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaDeletedIDs", args, 0); res != nil {
		return res
	}
	return jsonResult(appCtx.Personas.Store().DeletedIDs())
}

func personaClearDeleted(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaClearDeleted", args, 0); res != nil {
		return res
	}
	if err := appCtx.Personas.Store().ClearDeletedIDs(); err != nil {
		return errorResult(err.Error())
	}
	return successResult("cleared")
}

func personaSelected(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaSelected", args, 0); res != nil {
		return res
	}
	return appCtx.Personas.SelectedID()
}

// Args: [id string]
func personaSelect(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaSelect", args, 1); res != nil {
		return res
	}
	if err := appCtx.Personas.Select(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("selected")
}

func restorePersonas(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("restorePersonas", args, 0); res != nil {
		return res
	}
	return reportResult(appCtx.Restore.RestorePersonas())
}

func personaOrders(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("personaOrders", args, 0); res != nil {
		return res
	}
	return jsonResult(appCtx.Restore.PersonaOrders())
}

// Args: [ordersJSON string] - {"<id>": order, ...}
func updatePersonaOrders(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("updatePersonaOrders", args, 1); res != nil {
		return res
	}
	var orders map[string]int
	if err := json.Unmarshal([]byte(args[0].String()), &orders); err != nil {
		return errorResult("invalid orders json: " + err.Error())
	}
	return reportResult(appCtx.Restore.UpdatePersonaOrders(orders))
}

// =============================================================================
// Knowledge Base API
// =============================================================================

func knowledgeList(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeList", args, 0); res != nil {
		return res
	}
	return jsonResult(appCtx.Knowledge.List())
}

// Args: [id string]
func knowledgeGet(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeGet", args, 1); res != nil {
		return res
	}
	kb, ok := appCtx.Knowledge.Get(args[0].String())
	if !ok {
		return "null"
	}
	return jsonResult(kb)
}

// Args: [id string]
func knowledgeGetStore(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeGetStore", args, 1); res != nil {
		return res
	}
	v, ok := appCtx.Knowledge.GetKnowledgeStore(args[0].String())
	if !ok {
		return "null"
	}
	return jsonResult(v)
}

// Args: [id string, knowledgeJSON string]
func knowledgeSave(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeSave", args, 2); res != nil {
		return res
	}
	var kb knowledge.KnowledgeBase
	if err := json.Unmarshal([]byte(args[1].String()), &kb); err != nil {
		return errorResult("invalid knowledge base json: " + err.Error())
	}
	if err := appCtx.Knowledge.Save(args[0].String(), kb); err != nil {
		return errorResult(err.Error())
	}
	return successResult("saved")
}

// Args: [id string]
func knowledgeDelete(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeDelete", args, 1); res != nil {
		return res
	}
	if err := appCtx.Knowledge.Delete(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted")
}

// Args: [id string]
func knowledgeMarkAsDeleted(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeMarkAsDeleted", args, 1); res != nil {
		return res
	}
	if err := appCtx.Knowledge.Store().MarkAsDeleted(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("marked")
}

func knowledgeDeletedIDs(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeDeletedIDs", args, 0); res != nil {
		return res
	}
	return jsonResult(appCtx.Knowledge.Store().DeletedIDs())
}

func knowledgeClearDeleted(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeClearDeleted", args, 0); res != nil {
		return res
	}
	if err := appCtx.Knowledge.Store().ClearDeletedIDs(); err != nil {
		return errorResult(err.Error())
	}
	return successResult("cleared")
}

// Args: [id string]
// Returns: the knowledge base as indented JSON
func knowledgeExport(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeExport", args, 1); res != nil {
		return res
	}
	data, err := appCtx.Knowledge.ExportByID(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return string(data)
}

// Args: [id string, exportedJSON string]
func knowledgeImport(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("knowledgeImport", args, 2); res != nil {
		return res
	}
	if err := appCtx.Knowledge.ImportAs(args[0].String(), []byte(args[1].String())); err != nil {
		return errorResult(err.Error())
	}
	return successResult("imported")
}

func restoreKnowledgeBases(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("restoreKnowledgeBases", args, 0); res != nil {
		return res
	}
	return reportResult(appCtx.Restore.RestoreKnowledgeBases())
}

// =============================================================================
// Conversation Log API
// =============================================================================

// Args: [messagesJSON string, personaID string]
func logConversation(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("logConversation", args, 2); res != nil {
		return res
	}
	var msgs []convlog.Message
	if err := json.Unmarshal([]byte(args[0].String()), &msgs); err != nil {
		return errorResult("invalid messages json: " + err.Error())
	}
	if err := appCtx.Logs.LogConversation(msgs, args[1].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("logged")
}

// Args: [personaID string]
func getPersonaLogs(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("getPersonaLogs", args, 1); res != nil {
		return res
	}
	c, ok := appCtx.Logs.GetPersonaLogs(args[0].String())
	if !ok {
		return "null"
	}
	return jsonResult(c)
}

func getLogs(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("getLogs", args, 0); res != nil {
		return res
	}
	return jsonResult(appCtx.Logs.GetLogs())
}

// Args: [personaID string]
func clearPersonaLogs(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("clearPersonaLogs", args, 1); res != nil {
		return res
	}
	if err := appCtx.Logs.ClearPersonaLogs(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("cleared")
}

func clearAllLogs(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("clearAllLogs", args, 0); res != nil {
		return res
	}
	if err := appCtx.Logs.ClearAllLogs(); err != nil {
		return errorResult(err.Error())
	}
	return successResult("cleared")
}

func getAvailablePersonas(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("getAvailablePersonas", args, 0); res != nil {
		return res
	}
	return jsonResult(appCtx.Logs.GetAvailablePersonas())
}

// Args: [personaID string]
// Returns: the downloaded filename
func downloadPersonaLogs(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("downloadPersonaLogs", args, 1); res != nil {
		return res
	}
	name, err := appCtx.Logs.DownloadPersonaLogs(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	return successResult(name)
}

func downloadAllLogs(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("downloadAllLogs", args, 0); res != nil {
		return res
	}
	name, err := appCtx.Logs.DownloadAllLogs()
	if err != nil {
		return errorResult(err.Error())
	}
	return successResult(name)
}

// =============================================================================
// Models + Chat API
// =============================================================================

func modelsList(this js.Value, args []js.Value) interface{} {
	return jsonResult(models.All())
}

func modelGet(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("modelGet", args, 0); res != nil {
		return res
	}
	return jsonResult(appCtx.Models.Selected())
}

// Args: [modelID string]
func modelSelect(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("modelSelect", args, 1); res != nil {
		return res
	}
	if err := appCtx.Models.Select(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("selected")
}

// Args: [apiKey string]
func setAPIKey(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("setApiKey", args, 1); res != nil {
		return res
	}
	if err := appCtx.SetAPIKey(args[0].String(), ""); err != nil {
		return errorResult(err.Error())
	}
	return successResult("api key set")
}

// sendMessage answers the last message of the history as a persona.
// Args: personaID (string), historyJSON (string) - [{role, content}, ...]
// Returns: Promise<JSON> with the styled assistant message
func sendMessage(this js.Value, args []js.Value) interface{} {
	if res := requireArgs("sendMessage", args, 2); res != nil {
		return res
	}
	personaID := args[0].String()
	var history []convlog.Message
	if err := json.Unmarshal([]byte(args[1].String()), &history); err != nil {
		return errorResult("invalid history json: " + err.Error())
	}

	promise, resolve, reject := makePromise()

	go func() {
		reply, err := appCtx.Chat.SendMessage(context.Background(), personaID, history)
		if err != nil {
			appCtx.Logger.Warn("sendMessage failed", zap.String("persona", personaID), zap.Error(err))
			reject.Invoke(js.Global().Get("Error").New(fmt.Sprintf("sendMessage: %v", err)))
			return
		}
		jsonBytes, _ := json.Marshal(reply)
		resolve.Invoke(string(jsonBytes))
	}()

	return promise
}

// =============================================================================
// Medium Export/Import (OPFS sync)
// =============================================================================

var errNotSQLite = errors.New("medium is not sqlite")

// storeExport dumps the SQLite medium as JSON for the page to write to OPFS.
func storeExport(this js.Value, args []js.Value) interface{} {
	if sqlMedium == nil {
		return errorResult(errNotSQLite.Error())
	}
	data, err := sqlMedium.Export()
	if err != nil {
		return errorResult(err.Error())
	}
	return string(data)
}

// storeImport replaces the SQLite medium's content with a previous export
// and refreshes every cache.
// Args: [exportJSON string]
func storeImport(this js.Value, args []js.Value) interface{} {
	if sqlMedium == nil || appCtx == nil {
		return errorResult(errNotSQLite.Error())
	}
	if len(args) < 1 {
		return errorResult("storeImport requires 1 arg: exportJSON")
	}
	if err := sqlMedium.Import([]byte(args[0].String())); err != nil {
		return errorResult(err.Error())
	}
	appCtx.HandleExternalChange("")
	return successResult("imported")
}

func storeStats(this js.Value, args []js.Value) interface{} {
	if sqlMedium == nil {
		return errorResult(errNotSQLite.Error())
	}
	st, err := sqlMedium.Stats()
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(st)
}
