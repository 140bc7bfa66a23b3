package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"photosynthesis-lab/internal/domain"
	"photosynthesis-lab/internal/engine"
)

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestWorkspaceLifecycle(t *testing.T) {
	server, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodPost, server.URL+"/workspaces", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, data)
	}
	var opened domain.LabSnapshot
	if err := json.Unmarshal(data, &opened); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if opened.ContentID != domain.DefaultContentID {
		t.Fatalf("expected default content, got %q", opened.ContentID)
	}
	base := server.URL + "/workspaces/" + opened.WorkspaceID

	resp, data = doJSON(t, http.MethodPost, base+"/actions", domain.Action{Name: domain.ActionQuizSelectAnswer, Index: 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	var result actionResponse
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Applied || result.Snapshot.Quiz.SelectedAnswer == nil || *result.Snapshot.Quiz.SelectedAnswer != 1 {
		t.Fatalf("unexpected action result %+v", result)
	}

	// next before submit does nothing but is not an error
	resp, data = doJSON(t, http.MethodPost, base+"/actions", domain.Action{Name: domain.ActionQuizNext})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Applied {
		t.Fatalf("expected next to be ignored before submit")
	}

	resp, data = doJSON(t, http.MethodPost, base+"/actions", domain.Action{Name: "quiz.skip"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d: %s", resp.StatusCode, data)
	}

	resp, _ = doJSON(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodDelete, base, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after close, got %d", resp.StatusCode)
	}
}

func TestOpenWorkspaceUnknownContent(t *testing.T) {
	server, _ := newTestServer(t)
	resp, data := doJSON(t, http.MethodPost, server.URL+"/workspaces", openRequest{ContentID: "respiration"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, data)
	}
}

func TestContentHidesAnswerKeys(t *testing.T) {
	server, _ := newTestServer(t)
	resp, data := doJSON(t, http.MethodGet, server.URL+"/content/"+domain.DefaultContentID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	body := string(data)
	for _, key := range []string{"correctIndex", "pairedWith"} {
		if strings.Contains(body, key) {
			t.Fatalf("expected %s to be hidden, body %s", key, body)
		}
	}
}

func TestRateEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodGet, server.URL+"/rate?light=80&water=70&temperature=30", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	var got rateResponse
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	inputs := domain.EnvironmentalInputs{Light: 80, Water: 70, Temperature: 30}
	want := engine.ComputeRate(inputs)
	if got.Rate != want || got.Inputs != inputs {
		t.Fatalf("expected %+v for %+v, got %+v", want, inputs, got)
	}
	if got.EmissionIntervalMS != engine.EmissionInterval(want.Value).Milliseconds() {
		t.Fatalf("unexpected emission interval %d", got.EmissionIntervalMS)
	}

	resp, data = doJSON(t, http.MethodGet, server.URL+"/rate?light=500", nil)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || got.Inputs.Light != engine.MaxLevel || got.Inputs.Water != engine.DefaultInputs.Water {
		t.Fatalf("expected clamped light and default water, got %d %+v", resp.StatusCode, got.Inputs)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/rate?water=lots", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad input, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	resp, data := doJSON(t, http.MethodGet, server.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK || string(data) != "ok" {
		t.Fatalf("unexpected healthz %d %q", resp.StatusCode, data)
	}
}
