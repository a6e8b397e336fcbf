package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/drummonds/bandgap/config"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestStore(url string) *Store {
	return New(config.StoreConfig{Mode: config.ModeDevelopment, DevelopmentAPIURL: url})
}

// closedServerURL returns the address of a server that no longer listens
func closedServerURL() string {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}

func TestNewStore(t *testing.T) {
	Convey("Given a freshly constructed store", t, func() {
		st := New(config.StoreConfig{Mode: "production", DevelopmentAPIURL: "http://localhost:3000", ProductionAPIURL: "https://bandgap.example.org/"})
		defer st.Close()

		Convey("Then the production URL is selected without its trailing slash", func() {
			So(st.APIURL(), ShouldEqual, "https://bandgap.example.org")
		})

		Convey("Then the state starts empty", func() {
			snap := st.Snapshot()
			So(snap.Predictions.String(), ShouldEqual, "[]")
			So(snap.APIStatus, ShouldEqual, "")
			So(snap.IsProcessing, ShouldBeFalse)
			So(snap.HasError(), ShouldBeFalse)
		})
	})
}

func TestMutators(t *testing.T) {
	Convey("Given a store", t, func() {
		st := newTestStore("http://localhost:3000")
		defer st.Close()

		Convey("When each mutator is applied twice with the same value", func() {
			for i := 0; i < 2; i++ {
				st.SetPredictions(Predictions(`[{"band_gap":1.1}]`))
				st.SetAPIStatus("ok")
				st.SetProcessing(true)
				st.SetError("boom")
			}

			Convey("Then the state holds exactly that value", func() {
				snap := st.Snapshot()
				So(snap.Predictions.String(), ShouldEqual, `[{"band_gap":1.1}]`)
				So(snap.APIStatus, ShouldEqual, "ok")
				So(snap.IsProcessing, ShouldBeTrue)
				So(snap.Error, ShouldEqual, "boom")
			})
		})

		Convey("When SetError is given an empty string", func() {
			st.SetError("boom")
			st.SetError("")

			Convey("Then the error is absent", func() {
				So(st.Snapshot().HasError(), ShouldBeFalse)
			})
		})

		Convey("When a snapshot is modified", func() {
			st.SetPredictions(Predictions(`[1]`))
			snap := st.Snapshot()
			snap.Predictions[1] = '2'

			Convey("Then the store is unaffected", func() {
				So(st.Snapshot().Predictions.String(), ShouldEqual, `[1]`)
			})
		})

		Convey("When a subscriber is registered", func() {
			var seen []State
			unsubscribe := st.Subscribe(func(s State) { seen = append(seen, s) })
			st.SetAPIStatus("ok")
			st.SetProcessing(true)
			unsubscribe()
			st.SetProcessing(false)

			Convey("Then it sees every mutation until it unsubscribes", func() {
				So(len(seen), ShouldEqual, 2)
				So(seen[0].APIStatus, ShouldEqual, "ok")
				So(seen[1].IsProcessing, ShouldBeTrue)
			})
		})
	})
}

func TestCheckAPIHealth(t *testing.T) {
	Convey("Given a backend that reports its status", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != HealthPath || r.Method != http.MethodGet {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"status": "ok"}`)
		}))
		defer server.Close()

		st := newTestStore(server.URL)
		defer st.Close()
		st.SetError("earlier failure")

		Convey("When the health check runs", func() {
			status, err := st.CheckAPIHealth(context.Background())

			Convey("Then the status is committed and returned", func() {
				So(err, ShouldBeNil)
				So(status, ShouldEqual, "ok")
				So(st.Snapshot().APIStatus, ShouldEqual, "ok")
			})

			Convey("Then the error is left unchanged", func() {
				So(st.Snapshot().Error, ShouldEqual, "earlier failure")
			})
		})
	})

	Convey("Given a backend that cannot be reached", t, func() {
		st := newTestStore(closedServerURL())
		defer st.Close()

		Convey("When the health check runs", func() {
			_, err := st.CheckAPIHealth(context.Background())

			Convey("Then the failure is reflected in state and returned", func() {
				So(err, ShouldNotBeNil)
				So(IsTransportError(err), ShouldBeTrue)
				snap := st.Snapshot()
				So(snap.APIStatus, ShouldStartWith, "Error: ")
				So(snap.Error, ShouldEqual, err.Error())
				So(snap.APIStatus, ShouldEqual, "Error: "+err.Error())
			})
		})
	})

	Convey("Given a backend that answers with a server error", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"detail": "loading models"}`)
		}))
		defer server.Close()

		st := newTestStore(server.URL)
		defer st.Close()

		Convey("When the health check runs", func() {
			_, err := st.CheckAPIHealth(context.Background())

			Convey("Then the status code message is stored", func() {
				So(err, ShouldNotBeNil)
				snap := st.Snapshot()
				So(snap.Error, ShouldEqual, "Request failed with status code 503")
				So(snap.APIStatus, ShouldEqual, "Error: Request failed with status code 503")
			})
		})
	})
}

func TestCheckAPIHealthPlainBody(t *testing.T) {
	Convey("Given a healthy backend that does not answer with a status object", t, func() {
		tests := []struct {
			body string
			want string
		}{
			{"Server is up and running\n", "Server is up and running"},
			{`"alive"`, "alive"},
			{`{"uptime": 12}`, ""},
		}

		for _, tt := range tests {
			body := tt.body
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			st := newTestStore(server.URL)

			status, err := st.CheckAPIHealth(context.Background())

			So(err, ShouldBeNil)
			So(status, ShouldEqual, tt.want)
			So(st.Snapshot().APIStatus, ShouldEqual, tt.want)
			So(st.Snapshot().HasError(), ShouldBeFalse)

			st.Close()
			server.Close()
		}
	})
}

func TestSubscribersSeeCommitOrder(t *testing.T) {
	Convey("Given a subscriber that is slow to handle the first commit", t, func() {
		st := newTestStore("http://localhost:3000")
		defer st.Close()

		firstArrived := make(chan struct{})
		var (
			mu        sync.Mutex
			delivered []string
		)
		st.Subscribe(func(s State) {
			if s.APIStatus == "a" {
				close(firstArrived)
				time.Sleep(50 * time.Millisecond)
			}
			mu.Lock()
			delivered = append(delivered, s.APIStatus)
			mu.Unlock()
		})

		Convey("When a second commit lands while the first is being delivered", func() {
			done := make(chan struct{})
			go func() {
				st.SetAPIStatus("a")
				close(done)
			}()
			<-firstArrived
			st.SetAPIStatus("b")
			<-done

			Convey("Then the subscriber ends on the state the store holds", func() {
				mu.Lock()
				defer mu.Unlock()
				So(delivered, ShouldResemble, []string{"a", "b"})
				So(st.Snapshot().APIStatus, ShouldEqual, "b")
			})
		})
	})
}

func TestPredictBandGap(t *testing.T) {
	Convey("Given a backend that predicts band gaps", t, func() {
		var (
			mu            sync.Mutex
			gotFormulas   []string
			gotModelType  string
			gotFileName   string
			gotFileData   string
			gotContentTyp string
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != PredictPath || r.Method != http.MethodPost {
				http.NotFound(w, r)
				return
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			mu.Lock()
			gotContentTyp = r.Header.Get("Content-Type")
			gotFormulas = r.MultipartForm.Value[FieldFormula]
			gotModelType = r.FormValue(FieldModelType)
			if file, header, err := r.FormFile(FieldFile); err == nil {
				data, _ := io.ReadAll(file)
				gotFileName = header.Filename
				gotFileData = string(data)
				file.Close()
			}
			mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"bandgap": 1.5}`)
		}))
		defer server.Close()

		st := newTestStore(server.URL)
		defer st.Close()

		Convey("When a prediction is requested with formulas and a model type", func() {
			payload := PredictPayload{Formulas: []string{"TiO2", "BaLa2In2O7"}, ModelType: "XGBoost"}
			predictions, err := st.PredictBandGap(context.Background(), payload)

			Convey("Then the body is stored without transformation", func() {
				So(err, ShouldBeNil)
				So(predictions.String(), ShouldEqual, `{"bandgap": 1.5}`)
				snap := st.Snapshot()
				So(snap.Predictions.Equal(Predictions(`{"bandgap": 1.5}`)), ShouldBeTrue)
				So(snap.IsProcessing, ShouldBeFalse)
				So(snap.HasError(), ShouldBeFalse)
			})

			Convey("Then the payload arrives as multipart form data", func() {
				mu.Lock()
				defer mu.Unlock()
				So(gotContentTyp, ShouldStartWith, "multipart/form-data")
				So(gotFormulas, ShouldResemble, []string{"TiO2", "BaLa2In2O7"})
				So(gotModelType, ShouldEqual, "XGBoost")
			})
		})

		Convey("When a prediction is requested with an uploaded file", func() {
			payload := PredictPayload{File: &FileField{Name: "materials.csv", Content: []byte("formula\nTiO2\n")}}
			_, err := st.PredictBandGap(context.Background(), payload)

			Convey("Then the file is sent as a form file", func() {
				So(err, ShouldBeNil)
				mu.Lock()
				defer mu.Unlock()
				So(gotFileName, ShouldEqual, "materials.csv")
				So(gotFileData, ShouldEqual, "formula\nTiO2\n")
			})
		})

		Convey("When a previous error exists", func() {
			st.SetError("stale")
			_, err := st.PredictBandGap(context.Background(), PredictPayload{Formulas: []string{"TiO2"}})

			Convey("Then it is cleared", func() {
				So(err, ShouldBeNil)
				So(st.Snapshot().HasError(), ShouldBeFalse)
			})
		})
	})

	Convey("Given a backend that holds the request open", t, func() {
		started := make(chan struct{})
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release
			_, _ = io.WriteString(w, `[]`)
		}))
		defer server.Close()

		st := newTestStore(server.URL)
		defer st.Close()
		st.SetError("stale")

		done := make(chan error, 1)
		go func() {
			_, err := st.PredictBandGap(context.Background(), PredictPayload{Formulas: []string{"TiO2"}})
			done <- err
		}()
		<-started
		inFlight := st.Snapshot()
		close(release)
		err := <-done

		Convey("Then processing is set and the error cleared while in flight", func() {
			So(inFlight.IsProcessing, ShouldBeTrue)
			So(inFlight.HasError(), ShouldBeFalse)
		})

		Convey("Then processing is reset once the call settles", func() {
			So(err, ShouldBeNil)
			So(st.Snapshot().IsProcessing, ShouldBeFalse)
		})
	})

	Convey("Given a backend that rejects the payload with a structured body", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "{\n  \"detail\": \"Error during prediction: unknown element Xx\"\n}")
		}))
		defer server.Close()

		st := newTestStore(server.URL)
		defer st.Close()
		st.SetPredictions(Predictions(`[{"composition":"TiO2"}]`))

		Convey("When a prediction is requested", func() {
			_, err := st.PredictBandGap(context.Background(), PredictPayload{Formulas: []string{"Xx2"}})

			Convey("Then the serialized body becomes the error", func() {
				So(err, ShouldNotBeNil)
				snap := st.Snapshot()
				So(snap.Error, ShouldEqual, `{"detail":"Error during prediction: unknown element Xx"}`)
				So(snap.IsProcessing, ShouldBeFalse)
				So(snap.Predictions.String(), ShouldEqual, `[{"composition":"TiO2"}]`)
			})
		})
	})

	Convey("Given a backend that cannot be reached", t, func() {
		st := newTestStore(closedServerURL())
		defer st.Close()
		st.SetPredictions(Predictions(`[{"composition":"TiO2"}]`))

		Convey("When a prediction is requested", func() {
			_, err := st.PredictBandGap(context.Background(), PredictPayload{Formulas: []string{"TiO2"}})

			Convey("Then the transport message is stored and predictions are untouched", func() {
				So(err, ShouldNotBeNil)
				So(IsTransportError(err), ShouldBeTrue)
				snap := st.Snapshot()
				So(snap.Error, ShouldEqual, err.Error())
				So(snap.Predictions.String(), ShouldEqual, `[{"composition":"TiO2"}]`)
				So(snap.IsProcessing, ShouldBeFalse)
			})
		})
	})

	Convey("Given a context that is already cancelled", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `[]`)
		}))
		defer server.Close()

		st := newTestStore(server.URL)
		defer st.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When a prediction is requested", func() {
			_, err := st.PredictBandGap(ctx, PredictPayload{Formulas: []string{"TiO2"}})

			Convey("Then it fails like a network error and cleans up", func() {
				So(err, ShouldNotBeNil)
				So(IsTransportError(err), ShouldBeTrue)
				So(strings.Contains(st.Snapshot().Error, "context canceled"), ShouldBeTrue)
				So(st.Snapshot().IsProcessing, ShouldBeFalse)
			})
		})
	})
}

func TestConcurrentPredictionsLastWriteWins(t *testing.T) {
	Convey("Given two predictions in flight that complete out of order", t, func() {
		releaseSlow := make(chan struct{})
		slowArrived := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			formula := r.FormValue(FieldFormula)
			if formula == "slow" {
				close(slowArrived)
				<-releaseSlow
			}
			body, _ := json.Marshal([]map[string]string{{"composition": formula}})
			_, _ = w.Write(body)
		}))
		defer server.Close()

		st := newTestStore(server.URL)
		defer st.Close()

		slowDone := make(chan error, 1)
		go func() {
			_, err := st.PredictBandGap(context.Background(), PredictPayload{Formulas: []string{"slow"}})
			slowDone <- err
		}()
		<-slowArrived

		_, fastErr := st.PredictBandGap(context.Background(), PredictPayload{Formulas: []string{"fast"}})
		afterFast := st.Snapshot()

		close(releaseSlow)
		slowErr := <-slowDone
		afterSlow := st.Snapshot()

		Convey("Then the fast call's commits are visible first", func() {
			So(fastErr, ShouldBeNil)
			So(afterFast.Predictions.String(), ShouldEqual, `[{"composition":"fast"}]`)
			So(afterFast.IsProcessing, ShouldBeFalse)
		})

		Convey("Then the later completion wins", func() {
			So(slowErr, ShouldBeNil)
			So(afterSlow.Predictions.String(), ShouldEqual, `[{"composition":"slow"}]`)
			So(afterSlow.IsProcessing, ShouldBeFalse)
		})
	})
}
