package appium

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// writeJSON encodes data as JSON to the response writer.
func writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func readBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	return body
}

func sessionClient(url string) *Client {
	c := NewClient(url)
	c.sessionID = "test-session"
	return c
}

func TestClient_Connect(t *testing.T) {
	var caps map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session" && r.Method == http.MethodPost {
			body := readBody(t, r)
			caps, _ = body["capabilities"].(map[string]interface{})
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"sessionId": "test-session-123",
					"capabilities": map[string]interface{}{
						"platformName":    "Android",
						"platformVersion": "14",
					},
				},
			})
			return
		}
		if r.URL.Path == "/session/test-session-123/window/rect" {
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"width": 1080.0, "height": 1920.0},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	err := client.Connect(context.Background(), map[string]interface{}{
		"platformName":      "Android",
		"appium:deviceName": "emulator-5554",
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if client.SessionID() != "test-session-123" {
		t.Errorf("Expected sessionID 'test-session-123', got '%s'", client.SessionID())
	}
	if client.Platform() != "android" {
		t.Errorf("Expected platform 'android', got '%s'", client.Platform())
	}
	w, h := client.ScreenSize()
	if w != 1080 || h != 1920 {
		t.Errorf("Expected screen size 1080x1920, got %dx%d", w, h)
	}
	always, _ := caps["alwaysMatch"].(map[string]interface{})
	if always["appium:deviceName"] != "emulator-5554" {
		t.Errorf("capabilities not sent under alwaysMatch: %v", caps)
	}
}

func TestClient_ConnectError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "session not created",
				"message": "no device attached",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Connect(context.Background(), map[string]interface{}{"platformName": "Android"})
	if err == nil {
		t.Fatal("Expected error")
	}
	var wdErr *WebDriverError
	if !errors.As(err, &wdErr) || wdErr.Code != "session not created" {
		t.Errorf("Expected wrapped WebDriverError, got %v", err)
	}
	if client.SessionID() != "" {
		t.Error("sessionID should stay empty")
	}
}

func TestClient_Disconnect(t *testing.T) {
	deleteCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session" && r.Method == http.MethodDelete {
			deleteCalled = true
			writeJSON(w, map[string]interface{}{"value": nil})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := sessionClient(server.URL)
	if err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if !deleteCalled {
		t.Error("DELETE /session was not called")
	}
	if client.SessionID() != "" {
		t.Error("sessionID should be cleared after disconnect")
	}

	// second disconnect is a no-op
	deleteCalled = false
	if err := client.Disconnect(context.Background()); err != nil || deleteCalled {
		t.Errorf("second Disconnect should not call the server (err=%v)", err)
	}
}

func TestClient_NoSession(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Source(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
}

func TestClient_FindElement(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/element" && r.Method == http.MethodPost {
			body = readBody(t, r)
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{w3cElementKey: "elem-123"},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := sessionClient(server.URL)
	elemID, err := client.FindElement(context.Background(), ByXPath, "//button[@text='OK']")
	if err != nil {
		t.Fatalf("FindElement failed: %v", err)
	}
	if elemID != "elem-123" {
		t.Errorf("Expected element ID 'elem-123', got '%s'", elemID)
	}
	if body["using"] != "xpath" || body["value"] != "//button[@text='OK']" {
		t.Errorf("Unexpected request body: %v", body)
	}
}

func TestClient_FindElementNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "no such element",
				"message": "An element could not be located",
			},
		})
	}))
	defer server.Close()

	client := sessionClient(server.URL)
	_, err := client.FindElement(context.Background(), ByID, "missing")
	var wdErr *WebDriverError
	if !errors.As(err, &wdErr) {
		t.Fatalf("Expected WebDriverError, got %v", err)
	}
	if !wdErr.NotFound() || wdErr.Status != http.StatusNotFound {
		t.Errorf("Unexpected error: %+v", wdErr)
	}
}

func TestClient_WaitForElement(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"error": "no such element", "message": "not yet"},
			})
			return
		}
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{"ELEMENT": "legacy-1"},
		})
	}))
	defer server.Close()

	client := sessionClient(server.URL)
	id, err := client.WaitForElement(context.Background(), ByAccessibilityID, "login", 5*time.Second, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForElement failed: %v", err)
	}
	if id != "legacy-1" || calls != 3 {
		t.Errorf("id=%q calls=%d, want legacy-1 after 3 calls", id, calls)
	}
}

func TestClient_WaitForElementTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{"error": "no such element", "message": "gone"},
		})
	}))
	defer server.Close()

	client := sessionClient(server.URL)
	if _, err := client.WaitForElement(context.Background(), ByXPath, "//x", 0, time.Millisecond); err == nil {
		t.Fatal("Expected timeout error")
	}
}

func TestClient_ElementActions(t *testing.T) {
	var paths []string
	var valueBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/session/test-session/element/e1/value":
			valueBody = readBody(t, r)
		case "/session/test-session/element/e1/text":
			writeJSON(w, map[string]interface{}{"value": "Hello"})
			return
		case "/session/test-session/element/e1/rect":
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"x": 10.0, "y": 20.0, "width": 100.0, "height": 40.0},
			})
			return
		case "/session/test-session/element/e1/attribute/value":
			writeJSON(w, map[string]interface{}{"value": 1.0})
			return
		}
		writeJSON(w, map[string]interface{}{"value": nil})
	}))
	defer server.Close()

	ctx := context.Background()
	client := sessionClient(server.URL)

	if err := client.ClickElement(ctx, "e1"); err != nil {
		t.Fatalf("ClickElement: %v", err)
	}
	if err := client.ClearElement(ctx, "e1"); err != nil {
		t.Fatalf("ClearElement: %v", err)
	}
	if err := client.SendValue(ctx, "e1", "abc"); err != nil {
		t.Fatalf("SendValue: %v", err)
	}
	text, err := client.GetElementText(ctx, "e1")
	if err != nil || text != "Hello" {
		t.Fatalf("GetElementText = %q, %v", text, err)
	}
	rect, err := client.GetElementRect(ctx, "e1")
	if err != nil {
		t.Fatalf("GetElementRect: %v", err)
	}
	if rect != (Bounds{X: 10, Y: 20, Width: 100, Height: 40}) {
		t.Errorf("Unexpected rect: %+v", rect)
	}
	if v, err := client.GetElementAttribute(ctx, "e1", "value"); err != nil || v != "1" {
		t.Errorf("GetElementAttribute = %q, %v", v, err)
	}

	want := []string{
		"POST /session/test-session/element/e1/click",
		"POST /session/test-session/element/e1/clear",
		"POST /session/test-session/element/e1/value",
		"GET /session/test-session/element/e1/text",
		"GET /session/test-session/element/e1/rect",
		"GET /session/test-session/element/e1/attribute/value",
	}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("request %d = %s, want %s", i, paths[i], want[i])
		}
	}
	if valueBody["text"] != "abc" {
		t.Errorf("Unexpected value body: %v", valueBody)
	}
}

func TestClient_Swipe(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/test-session/actions" {
			body = readBody(t, r)
		}
		writeJSON(w, map[string]interface{}{"value": nil})
	}))
	defer server.Close()

	client := sessionClient(server.URL)
	if err := client.Swipe(context.Background(), 500, 1500, 500, 500, 300); err != nil {
		t.Fatalf("Swipe failed: %v", err)
	}

	actions, _ := body["actions"].([]interface{})
	if len(actions) != 1 {
		t.Fatalf("Expected one pointer source, got %v", body)
	}
	pointer := actions[0].(map[string]interface{})
	steps := pointer["actions"].([]interface{})
	if len(steps) != 4 {
		t.Fatalf("Expected 4 pointer steps, got %d", len(steps))
	}
	end := steps[2].(map[string]interface{})
	if end["y"] != 500.0 || end["duration"] != 300.0 {
		t.Errorf("Unexpected move step: %v", end)
	}
}

func TestClient_AppManagement(t *testing.T) {
	bodies := map[string]map[string]interface{}{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodies[r.URL.Path] = readBody(t, r)
		writeJSON(w, map[string]interface{}{"value": true})
	}))
	defer server.Close()

	ctx := context.Background()
	client := sessionClient(server.URL)
	client.platform = "android"
	if err := client.ActivateApp(ctx, "com.example"); err != nil {
		t.Fatalf("ActivateApp: %v", err)
	}
	if got := bodies["/session/test-session/appium/device/activate_app"]["appId"]; got != "com.example" {
		t.Errorf("activate appId = %v", got)
	}

	client.platform = "ios"
	if err := client.TerminateApp(ctx, "com.example.ios"); err != nil {
		t.Fatalf("TerminateApp: %v", err)
	}
	if got := bodies["/session/test-session/appium/device/terminate_app"]["bundleId"]; got != "com.example.ios" {
		t.Errorf("terminate bundleId = %v", got)
	}
}

func TestClient_ScreenshotAndSource(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/test-session/screenshot":
			writeJSON(w, map[string]interface{}{"value": base64.StdEncoding.EncodeToString(png)})
		case "/session/test-session/source":
			writeJSON(w, map[string]interface{}{"value": "<hierarchy/>"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client := sessionClient(server.URL)

	data, err := client.Screenshot(ctx)
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if string(data) != string(png) {
		t.Errorf("Unexpected screenshot bytes: %v", data)
	}

	source, err := client.Source(ctx)
	if err != nil || source != "<hierarchy/>" {
		t.Fatalf("Source = %q, %v", source, err)
	}
}

func TestClient_Recording(t *testing.T) {
	video := []byte("mp4-bytes")
	var startBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/test-session/appium/start_recording_screen":
			startBody = readBody(t, r)
			writeJSON(w, map[string]interface{}{"value": nil})
		case "/session/test-session/appium/stop_recording_screen":
			writeJSON(w, map[string]interface{}{"value": base64.StdEncoding.EncodeToString(video)})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client := sessionClient(server.URL)

	if err := client.StartRecording(ctx, map[string]interface{}{"timeLimit": "600"}); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	opts, _ := startBody["options"].(map[string]interface{})
	if opts["timeLimit"] != "600" {
		t.Errorf("Unexpected start options: %v", startBody)
	}

	data, err := client.StopRecording(ctx)
	if err != nil {
		t.Fatalf("StopRecording failed: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Errorf("Unexpected video: %q", data)
	}
}

func TestClient_Shell(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = readBody(t, r)
		writeJSON(w, map[string]interface{}{"value": "package:com.example\n"})
	}))
	defer server.Close()

	client := sessionClient(server.URL)
	out, err := client.Shell(context.Background(), "pm", "list", "packages")
	if err != nil {
		t.Fatalf("Shell failed: %v", err)
	}
	if out != "package:com.example\n" {
		t.Errorf("Unexpected output: %q", out)
	}
	if body["script"] != "mobile: shell" {
		t.Errorf("Unexpected script: %v", body["script"])
	}
	args := body["args"].([]interface{})[0].(map[string]interface{})
	if args["command"] != "pm" || len(args["args"].([]interface{})) != 2 {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"value": "x"})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := sessionClient(server.URL)
	if _, err := client.Source(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestExtractElementID(t *testing.T) {
	if got := extractElementID(map[string]interface{}{w3cElementKey: "w3c"}); got != "w3c" {
		t.Errorf("w3c id = %q", got)
	}
	if got := extractElementID(map[string]interface{}{"ELEMENT": "legacy"}); got != "legacy" {
		t.Errorf("legacy id = %q", got)
	}
	if got := extractElementID(map[string]interface{}{}); got != "" {
		t.Errorf("empty id = %q", got)
	}
}
