package swagger

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a mux with the OpenAPI routes", t, func() {
		mux := http.NewServeMux()
		convey.So(Register(mux), convey.ShouldBeNil)

		convey.Convey("Then it should serve the YAML document", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "/students/{user_id}/recency")
		})

		convey.Convey("Then it should serve the JSON rendering", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.json", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var doc map[string]any
			convey.So(json.Unmarshal(w.Body.Bytes(), &doc), convey.ShouldBeNil)
			convey.So(doc["openapi"], convey.ShouldEqual, "3.0.3")
			paths, ok := doc["paths"].(map[string]any)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(paths, convey.ShouldContainKey, "/defects/top")
			convey.So(paths, convey.ShouldContainKey, "/prioritize/{submission_id}")
		})
	})

	convey.Convey("Given a nil mux", t, func() {
		convey.So(errors.Is(Register(nil), ErrServe), convey.ShouldBeTrue)
	})
}
