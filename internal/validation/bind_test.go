package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func bindManifest(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/shipments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req ManifestRequest
	if err := BindAndValidate(c, &req, New()); err == nil {
		t.Fatal("BindAndValidate accepted a bad request")
	}
	return w
}

func TestBindAndValidate_MalformedBody(t *testing.T) {
	w := bindManifest(t, "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response body: %v", err)
	}
	if resp.Error != "invalid_request_body" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestBindAndValidate_FieldNamesOnWire(t *testing.T) {
	// COD with no collect amount trips the struct-level rule
	w := bindManifest(t, `{
		"order_id": "ORD-1",
		"consignee": {"name": "Asha Rao", "line": "12 MG Road", "pincode": "110001", "phone": "9876543210"},
		"package": {"weight_grams": 500, "item_count": 1},
		"payment_mode": "COD",
		"declared_value": 1200
	}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response body: %v", err)
	}
	if resp.Error != "validation_failed" {
		t.Fatalf("error = %q", resp.Error)
	}
	if reason, ok := resp.Fields["cod_amount"]; !ok || !strings.Contains(reason, "cod_amount_positive") {
		t.Fatalf("fields = %v, want a cod_amount entry", resp.Fields)
	}
	for field := range resp.Fields {
		if strings.Contains(field, "ManifestRequest") {
			t.Fatalf("field key %q leaks the Go type path", field)
		}
	}
}
