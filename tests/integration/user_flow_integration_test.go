//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("CLEARLABEL_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:8080"
}

func TestProductJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 15 * time.Second}
	base := baseURL()

	userEmail := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	password := "Secret123!"

	var registerResp struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	doPost(t, client, base+"/api/auth/register", "", map[string]any{
		"email":        userEmail,
		"password":     password,
		"company_name": "Integration Foods",
	}, &registerResp)
	if registerResp.Token == "" || registerResp.UserID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/auth/login", "", map[string]string{
		"email":    userEmail,
		"password": password,
	}, &loginResp)
	token := loginResp.Token
	if token == "" {
		t.Fatalf("login did not return token")
	}

	var productResp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	doPost(t, client, base+"/api/products", token, map[string]any{
		"product_name": "Integration Oat Bar",
		"category":     "Food",
		"description":  "Oats, honey and almonds",
	}, &productResp)
	if productResp.ID == "" || productResp.Status != "draft" {
		t.Fatalf("unexpected product response: %+v", productResp)
	}

	var submitResp struct {
		Count int `json:"count"`
	}
	doPost(t, client, base+"/api/products/"+productResp.ID+"/responses", token, map[string]any{
		"responses": []map[string]any{
			{"question_id": 1, "answer": "Rolled oats, wildflower honey, roasted almonds, sea salt"},
			{"question_id": 4, "answer": "yes"},
			{"question_id": 22, "answer": "Tree nuts (almonds)"},
			{"question_id": 7, "answer": "Vermont, USA"},
		},
	}, &submitResp)
	if submitResp.Count != 4 {
		t.Fatalf("expected 4 saved responses, got %d", submitResp.Count)
	}

	var reportResp struct {
		ID                string          `json:"id"`
		TransparencyScore int             `json:"transparency_score"`
		ReportData        json.RawMessage `json:"report_data"`
	}
	doPost(t, client, base+"/api/reports/"+productResp.ID+"/generate", token, nil, &reportResp)
	if reportResp.ID == "" || len(reportResp.ReportData) == 0 {
		t.Fatalf("unexpected report response: %+v", reportResp)
	}
	if reportResp.TransparencyScore < 0 || reportResp.TransparencyScore > 100 {
		t.Fatalf("score out of range: %d", reportResp.TransparencyScore)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/products/"+productResp.ID+"/responses/export", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("export status %d body %s", resp.StatusCode, string(body))
	}
	csvData, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export data: %v", err)
	}
	csvContent := string(csvData)
	if !strings.Contains(csvContent, "Tree nuts (almonds)") {
		t.Fatalf("export csv did not contain the allergen answer; csv=%s", csvContent)
	}
}

func doPost(t *testing.T, client *http.Client, url, token string, body any, out any) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http post %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
