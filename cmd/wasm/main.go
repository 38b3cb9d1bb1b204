//go:build js && wasm

package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/inamate/inamate/pathedit/internal/document"
	"github.com/inamate/inamate/pathedit/internal/engine"
)

var (
	canvas  *document.Canvas
	session *engine.Session

	// JS callbacks, kept across document reloads
	eventCallback js.Value
	sceneCallback js.Value
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	open(document.NewEmptyDocument("doc_empty", ""))

	// Create the editor API object
	pathEditor := js.Global().Get("Object").New()

	// --- Host (frontend → editor) ---
	pathEditor.Set("loadDocument", js.FuncOf(loadDocument))
	pathEditor.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	pathEditor.Set("setSelection", js.FuncOf(setSelection))
	pathEditor.Set("shapeModified", js.FuncOf(shapeModified))
	pathEditor.Set("setTransform", js.FuncOf(setTransform))
	pathEditor.Set("onEvent", js.FuncOf(onEvent))
	pathEditor.Set("onSceneChange", js.FuncOf(onSceneChange))

	// --- Commands ---
	pathEditor.Set("highlightSubpath", js.FuncOf(highlightSubpath))
	pathEditor.Set("selectSubpath", js.FuncOf(selectSubpath))
	pathEditor.Set("clearHighlights", js.FuncOf(clearHighlights))
	pathEditor.Set("moveSubpath", js.FuncOf(moveSubpath))
	pathEditor.Set("deleteSubpath", js.FuncOf(deleteSubpath))
	pathEditor.Set("enablePointEditing", js.FuncOf(enablePointEditing))
	pathEditor.Set("disablePointEditing", js.FuncOf(disablePointEditing))
	pathEditor.Set("togglePointEditing", js.FuncOf(togglePointEditing))
	pathEditor.Set("selectPoint", js.FuncOf(selectPoint))
	pathEditor.Set("movePoint", js.FuncOf(movePoint))
	pathEditor.Set("dragPoint", js.FuncOf(dragPoint))
	pathEditor.Set("setPairSynchronized", js.FuncOf(setPairSynchronized))

	// --- Queries (frontend ← editor) ---
	pathEditor.Set("getState", js.FuncOf(getState))
	pathEditor.Set("getPanelState", js.FuncOf(getPanelState))
	pathEditor.Set("getSubpaths", js.FuncOf(getSubpaths))
	pathEditor.Set("getPoints", js.FuncOf(getPoints))
	pathEditor.Set("getPairs", js.FuncOf(getPairs))
	pathEditor.Set("getOverlays", js.FuncOf(getOverlays))
	pathEditor.Set("getDocument", js.FuncOf(getDocument))
	pathEditor.Set("pointAt", js.FuncOf(pointAt))

	js.Global().Set("pathEditor", pathEditor)

	// Signal that WASM is ready
	js.Global().Set("pathEditorWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// open replaces the current document and starts a fresh session on it.
func open(doc *document.Document) {
	if session != nil {
		session.Close()
	}
	canvas = document.NewCanvas(doc)
	canvas.Watch(func(ch document.Change) {
		if sceneCallback.Type() == js.TypeFunction {
			sceneCallback.Invoke(toJSON(ch))
		}
	})
	session = engine.NewSession(canvas, engine.Options{Logger: slog.Default()})
	session.Subscribe(func(e engine.Event) {
		if eventCallback.Type() == js.TypeFunction {
			eventCallback.Invoke(e.EventName(), toJSON(e))
		}
	})
}

func toJSON(v any) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf(`{"error":"marshal failed"}`)
	}
	return js.ValueOf(string(data))
}

func errorResult(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func stringArg(args []js.Value, i int) string {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

func floatArg(args []js.Value, i int) float64 {
	if len(args) <= i || args[i].Type() != js.TypeNumber {
		return 0
	}
	return args[i].Float()
}

// --- Host Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing document JSON")
	}
	doc, err := document.Parse([]byte(args[0].String()))
	if err != nil {
		return errorResult(err.Error())
	}
	open(doc)
	return okResult()
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	docID := "doc_sample"
	if id := stringArg(args, 0); id != "" {
		docID = id
	}
	open(document.NewSampleDocument(docID))
	return okResult()
}

func setSelection(this js.Value, args []js.Value) interface{} {
	session.HandleSelectionChanged(stringArg(args, 0))
	return nil
}

// shapeModified takes the shape JSON written by the host after an edit the
// editor did not make.
func shapeModified(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing shape JSON")
	}
	var shape document.Shape
	if err := json.Unmarshal([]byte(args[0].String()), &shape); err != nil {
		return errorResult(err.Error())
	}
	canvas.PutShape(shape)
	session.HandleShapeModified(shape.ID)
	return okResult()
}

// setTransform follows a live move, scale or rotation in the host.
func setTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("missing shape id or transform JSON")
	}
	var t document.Transform
	if err := json.Unmarshal([]byte(args[1].String()), &t); err != nil {
		return errorResult(err.Error())
	}
	id := args[0].String()
	if err := canvas.SetTransform(id, t); err != nil {
		return errorResult(err.Error())
	}
	session.HandleShapeTransforming(id)
	return okResult()
}

func onEvent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		eventCallback = js.Undefined()
		return nil
	}
	eventCallback = args[0]
	return nil
}

func onSceneChange(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		sceneCallback = js.Undefined()
		return nil
	}
	sceneCallback = args[0]
	return nil
}

// --- Command Handlers ---

func highlightSubpath(this js.Value, args []js.Value) interface{} {
	session.HighlightSubpath(stringArg(args, 0), floatArg(args, 1))
	return nil
}

func selectSubpath(this js.Value, args []js.Value) interface{} {
	session.SelectSubpath(stringArg(args, 0), floatArg(args, 1))
	return nil
}

func clearHighlights(this js.Value, args []js.Value) interface{} {
	session.ClearHighlights()
	return nil
}

func moveSubpath(this js.Value, args []js.Value) interface{} {
	session.MoveSubpath(stringArg(args, 0), floatArg(args, 1), floatArg(args, 2))
	return nil
}

func deleteSubpath(this js.Value, args []js.Value) interface{} {
	session.DeleteSubpath(stringArg(args, 0))
	return nil
}

func enablePointEditing(this js.Value, args []js.Value) interface{} {
	session.EnablePointEditing(stringArg(args, 0))
	return nil
}

func disablePointEditing(this js.Value, args []js.Value) interface{} {
	session.DisablePointEditing()
	return nil
}

func togglePointEditing(this js.Value, args []js.Value) interface{} {
	session.TogglePointEditing(stringArg(args, 0))
	return nil
}

func selectPoint(this js.Value, args []js.Value) interface{} {
	session.SelectPoint(stringArg(args, 0))
	return nil
}

func movePoint(this js.Value, args []js.Value) interface{} {
	session.MovePoint(stringArg(args, 0), floatArg(args, 1), floatArg(args, 2))
	return nil
}

func dragPoint(this js.Value, args []js.Value) interface{} {
	session.DragPoint(stringArg(args, 0), floatArg(args, 1), floatArg(args, 2))
	return nil
}

func setPairSynchronized(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || args[1].Type() != js.TypeBoolean {
		return nil
	}
	session.SetPairSynchronized(stringArg(args, 0), args[1].Bool())
	return nil
}

// --- Query Handlers ---

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(session.State().String())
}

func getPanelState(this js.Value, args []js.Value) interface{} {
	return toJSON(session.PanelState())
}

func getSubpaths(this js.Value, args []js.Value) interface{} {
	return toJSON(session.Subpaths())
}

func getPoints(this js.Value, args []js.Value) interface{} {
	return toJSON(session.Points())
}

func getPairs(this js.Value, args []js.Value) interface{} {
	return toJSON(session.Pairs())
}

func getOverlays(this js.Value, args []js.Value) interface{} {
	return toJSON(canvas.Overlays())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return toJSON(canvas.Document())
}

func pointAt(this js.Value, args []js.Value) interface{} {
	id, _ := session.PointAt(floatArg(args, 0), floatArg(args, 1))
	return js.ValueOf(id)
}
