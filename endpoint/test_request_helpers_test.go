package endpoint

import (
	"encoding/json"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
)

// handlerCall mounts a single handler on r and sends one request to it,
// bypassing the route table and its middleware.
type handlerCall struct {
	method  string
	route   string
	path    string
	handler gin.HandlerFunc
	body    interface{}
	headers map[string]string
}

func (hc handlerCall) serve(r *gin.Engine) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	path := hc.path
	if path == "" {
		path = hc.route
	}
	r.Handle(hc.method, hc.route, hc.handler)

	payload := ""
	if hc.body != nil {
		b, err := json.Marshal(hc.body)
		if err != nil {
			return nil, nil, err
		}
		payload = string(b)
	}
	req := httptest.NewRequest(hc.method, path, strings.NewReader(payload))
	if hc.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hc.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
			return w, nil, err
		}
	}
	return w, envelope, nil
}
