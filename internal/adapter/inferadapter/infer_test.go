package inferadapter

import (
	"context"
	"image"
	"image/jpeg"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gowvp/pothole/internal/conf"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "image/jpeg" {
			http.Error(w, "bad content type", http.StatusBadRequest)
			return
		}
		if _, err := jpeg.Decode(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detections":[
			{"label":"pothole","confidence":0.87,"box":{"x_min":0,"y_min":0,"x_max":0,"y_max":0},"norm_box":{"x":0.5,"y":0.5,"w":0.2,"h":0.4}},
			{"label":"car","confidence":0.6,"box":{"x_min":50,"y_min":25,"x_max":100,"y_max":75}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(&conf.Detector{URL: srv.URL, Timeout: conf.Duration(time.Second)})
	dets, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 200, 100)))
	if err != nil {
		t.Fatal(err)
	}
	if len(dets) != 2 {
		t.Fatalf("got %d detections", len(dets))
	}

	p := dets[0]
	if p.Label != "pothole" || !near(p.Box.Confidence, 0.87) {
		t.Errorf("first = %+v", p)
	}
	if !near(p.Box.YMin, 0.3) || !near(p.Box.YMax, 0.7) || !near(p.Box.VerticalCenter(), 0.5) {
		t.Errorf("norm box = %+v", p.Box)
	}

	car := dets[1]
	if !near(car.Box.XMin, 0.25) || !near(car.Box.YMin, 0.25) || !near(car.Box.XMax, 0.5) || !near(car.Box.YMax, 0.75) {
		t.Errorf("pixel box = %+v", car.Box)
	}
}

func TestDetectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(&conf.Detector{URL: srv.URL})
	if _, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8))); err == nil {
		t.Fatal("expected error")
	}
}
