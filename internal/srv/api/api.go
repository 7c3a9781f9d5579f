package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/gifmatrix/apimodel"
	"github.com/jypelle/gifmatrix/internal/srv/config"
	"github.com/jypelle/gifmatrix/internal/srv/event"
	"github.com/jypelle/gifmatrix/internal/srv/library"
	"github.com/jypelle/gifmatrix/internal/tool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Room left for the multipart envelope around the uploaded file.
const multipartOverhead = 1 << 20

type Controller interface {
	Submit(name string)
	Skip()
	NowPlaying() (string, bool)
}

type Library interface {
	List() ([]string, error)
	Open(name string) (*os.File, error)
	Save(filename string, r io.Reader) (string, error)
}

type Api struct {
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	param      config.ApiParam
	configDir  string
	controller Controller
	library    Library
}

func NewApi(param config.ApiParam, configDir string, controller Controller, library Library) *Api {
	api := Api{
		eventChannel: make(chan event.ApiEvent),
		param:        param,
		configDir:    configDir,
		controller:   controller,
		library:      library,
	}

	api.router = mux.NewRouter().StrictSlash(false)
	api.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/current", api.currentAction).Methods("GET")
	api.apiRouter.HandleFunc("/upload", api.uploadAction).Methods("POST")
	api.apiRouter.HandleFunc("/items", api.itemsAction).Methods("GET")
	api.apiRouter.HandleFunc("/items/{name}", api.itemAction).Methods("GET")
	api.apiRouter.HandleFunc("/skip",
		func(w http.ResponseWriter, r *http.Request) {
			api.controller.Skip()
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("POST")
	api.apiRouter.HandleFunc("/display/{action}",
		func(w http.ResponseWriter, r *http.Request) {
			action := event.DisplayAction(mux.Vars(r)["action"])
			switch action {
			case event.DISPLAY_ON, event.DISPLAY_OFF, event.DISPLAY_SWITCH:
			default:
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}

			result := make(chan error)
			api.eventChannel <- event.ApiEvent{Result: result, Data: event.ApiEventDisplayData{Action: action}}
			err := <-result
			if err == nil {
				ErrorStatusAction(w, r, http.StatusOK)
			} else {
				GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
			}
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Content-Type", "Authorization"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(param.Port, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) currentAction(w http.ResponseWriter, r *http.Request) {
	name, ok := d.controller.NowPlaying()
	if !ok {
		apimodel.NothingPlayingErrorMessage.SendError(w)
		return
	}
	sendJson(w, http.StatusOK, apimodel.CurrentItem{Current: name})
}

func (d *Api) uploadAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, d.param.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		if isBodyTooLarge(err) {
			ErrorStatusAction(w, r, http.StatusRequestEntityTooLarge)
			return
		}
		GlobalErrorAction(w, "Unable to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part sent without filename is parsed as a plain form value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			apimodel.NoSelectedFileErrorMessage.SendError(w)
		} else {
			apimodel.NoFileErrorMessage.SendError(w)
		}
		return
	}
	defer file.Close()

	name, err := d.library.Save(header.Filename, file)
	switch {
	case errors.Is(err, library.ErrUploadTooLarge):
		GlobalErrorAction(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	case errors.Is(err, library.ErrInvalidUpload):
		GlobalErrorAction(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logrus.Errorf("Unable to store upload %s: %v", header.Filename, err)
		ErrorStatusAction(w, r, http.StatusInternalServerError)
		return
	}

	d.controller.Submit(name)
	logrus.Infof("Upload %s queued for playback", name)

	sendJson(w, http.StatusOK, apimodel.UploadResult{Message: "File uploaded and playing", Filename: name})
}

func (d *Api) itemsAction(w http.ResponseWriter, r *http.Request) {
	names, err := d.library.List()
	if err != nil {
		GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	sendJson(w, http.StatusOK, apimodel.ItemList{Items: names})
}

func (d *Api) itemAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	file, err := d.library.Open(name)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			ErrorStatusAction(w, r, http.StatusNotFound)
		} else {
			GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		GlobalErrorAction(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	http.ServeContent(w, r, name, info.ModTime(), file)
}

// Handler gives the complete http handler, middlewares included.
func (d *Api) Handler() http.Handler {
	return d.server.Handler
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	if !d.param.Ssl {
		go func() {
			err := d.server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Error(err)
			}
		}()
		return
	}

	if err := d.ensureCertificate(); err != nil {
		logrus.Fatalf("Unable to prepare cert and key files: %v\n", err)
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
}

// ensureCertificate generates the self-signed cert and key files when one is missing.
func (d *Api) ensureCertificate() error {
	existServerCert, err := tool.IsFileExists(d.selfSignedCertFilename())
	if err != nil {
		return fmt.Errorf("unable to access %s: %w", d.selfSignedCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.selfSignedKeyFilename())
	if err != nil {
		return fmt.Errorf("unable to access %s: %w", d.selfSignedKeyFilename(), err)
	}

	if existServerCert && existServerKey {
		return nil
	}
	if len(d.param.Hostnames) == 0 {
		return tool.ErrNoHostname
	}

	logrus.Infof("Missing cert and key files, generating them for %s", strings.Join(d.param.Hostnames, ", "))
	err = tool.GenerateTlsCertificate(
		"jypelle",
		d.param.Hostnames[0],
		d.selfSignedKeyFilename(),
		d.selfSignedCertFilename(),
		d.param.Hostnames)
	if err != nil {
		return err
	}
	logrus.Info("Self-signed cert and key files generated")
	return nil
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logrus.Warnf("Unable to shutdown api server: %v", err)
	}
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.configDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.configDir, "cert.pem")
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large")
}

func sendJson(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	apimodel.ErrorMessage{ErrStatusCode: status, ErrMessage: title}.SendError(w)
}
