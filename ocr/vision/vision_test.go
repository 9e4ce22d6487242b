package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/raminstitute/examkit/ocr"
)

func TestRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k123" {
			t.Errorf("missing key param")
		}
		var req annotateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Requests) != 1 || req.Requests[0].Features[0].Type != "TEXT_DETECTION" {
			t.Errorf("unexpected request: %+v", req)
		}
		if got := req.Requests[0].ImageContext.LanguageHints; !reflect.DeepEqual(got, []string{"ta", "en"}) {
			t.Errorf("hints = %v", got)
		}
		w.Write([]byte(`{"responses":[{"textAnnotations":[{"description":"1. Which state?\n","confidence":0.95}]}]}`))
	}))
	defer srv.Close()

	e := &Engine{APIKey: "k123", URL: srv.URL}
	res, err := e.Recognize(context.Background(), ocr.Input{ID: "page-1", Image: []byte("png"), Languages: []string{"tam", "eng"}})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.PlainText != "1. Which state?" {
		t.Fatalf("text = %q", res.PlainText)
	}
	if res.Confidence != 0.95 {
		t.Fatalf("confidence = %v", res.Confidence)
	}
}

func TestRecognizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{"error":{"code":403,"message":"billing disabled"}}]}`))
	}))
	defer srv.Close()

	e := &Engine{APIKey: "k", URL: srv.URL}
	if _, err := e.Recognize(context.Background(), ocr.Input{Image: []byte("x")}); err == nil {
		t.Fatalf("expected error from api error body")
	}
}

func TestHints(t *testing.T) {
	if got := hints([]string{"tam", "eng"}); !reflect.DeepEqual(got, []string{"ta", "en"}) {
		t.Fatalf("hints = %v", got)
	}
	if got := hints(nil); !reflect.DeepEqual(got, []string{"ta", "en"}) {
		t.Fatalf("default hints = %v", got)
	}
}
