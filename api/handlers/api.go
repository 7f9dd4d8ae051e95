package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/api"
	"github.com/minbarhq/minbar-api/api/scheduler"
	"github.com/minbarhq/minbar-api/config"
	"github.com/minbarhq/minbar-api/content"
	"github.com/minbarhq/minbar-api/databases"
	"github.com/minbarhq/minbar-api/delivery"
	"github.com/minbarhq/minbar-api/editor"
	"github.com/minbarhq/minbar-api/models"
	"github.com/minbarhq/minbar-api/outline"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper

	outlines *outline.Manager
	editors  *editor.Manager
	reaper   *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{
		DB:      databases.NewUserDatabase(a.dbHelper),
		TokenDB: databases.NewTokenDatabase(a.dbHelper),
	}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	docDB := databases.NewDocumentDatabase(a.dbHelper)
	cardDB := databases.NewCardDatabase(a.dbHelper)
	a.outlines = outline.NewManager(cardDB, docDB)
	a.editors = editor.NewManager()

	provider := content.NewProviderClient(a.Config.ContentProviderURL)
	transformer := content.NewTransformerClient(a.Config.TransformerURL)

	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	d := Document{DB: docDB, Editors: a.editors}
	c := Card{DB: cardDB, DocDB: docDB, Outlines: a.outlines, Transformer: transformer}
	s := Snippet{Provider: provider}
	e := Editor{DocDB: docDB, Sessions: a.editors}
	lt := LiveToken{Secret: a.Config.LiveTokenSecret}
	live := Live{
		Loader: &delivery.Loader{DocDB: docDB, CardDB: cardDB},
		Secret: a.Config.LiveTokenSecret,
	}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(m.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/document", api.Middleware(http.HandlerFunc(d.CreateDocumentHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}", api.Middleware(http.HandlerFunc(d.DocumentByIDHandler))).Methods("GET")
	apiCreate.Handle("/document/{document_id}", api.Middleware(http.HandlerFunc(d.UpdateDocumentHandler))).Methods("PUT")
	apiCreate.Handle("/documents", api.Middleware(http.HandlerFunc(d.DocumentsSearchHandler))).Methods("GET")

	apiCreate.Handle("/document/{document_id}/cards", api.Middleware(http.HandlerFunc(c.CardsByDocumentIDHandler))).Methods("GET")
	apiCreate.Handle("/document/{document_id}/cards", api.Middleware(http.HandlerFunc(c.CreateCardHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/cards/generate", api.Middleware(http.HandlerFunc(c.GenerateCardsHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/cards/{card_id}/select", api.Middleware(http.HandlerFunc(c.SelectCardHandler))).Methods("POST")
	apiCreate.Handle("/card/{card_id}", api.Middleware(http.HandlerFunc(c.UpdateCardHandler))).Methods("PUT")
	apiCreate.Handle("/card/{card_id}", api.Middleware(http.HandlerFunc(c.DeleteCardHandler))).Methods("DELETE")

	apiCreate.Handle("/snippets", api.Middleware(http.HandlerFunc(s.SnippetSearchHandler))).Methods("GET")

	apiCreate.Handle("/document/{document_id}/editor/selection", api.Middleware(http.HandlerFunc(e.CaptureSelectionHandler))).Methods("PUT")
	apiCreate.Handle("/document/{document_id}/editor/picker", api.Middleware(http.HandlerFunc(e.OpenPickerHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/editor/picker", api.Middleware(http.HandlerFunc(e.ClosePickerHandler))).Methods("DELETE")
	apiCreate.Handle("/document/{document_id}/editor/blocks", api.Middleware(http.HandlerFunc(e.InsertBlockHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/editor/blocks/{block_id}/select", api.Middleware(http.HandlerFunc(e.SelectBlockHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/editor/blocks/deselect", api.Middleware(http.HandlerFunc(e.ClearBlockSelectionHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/editor/blocks/move", api.Middleware(http.HandlerFunc(e.MoveBlockHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/editor/blocks", api.Middleware(http.HandlerFunc(e.DeleteBlockHandler))).Methods("DELETE")
	apiCreate.Handle("/document/{document_id}/editor/body", api.Middleware(http.HandlerFunc(e.BodyHandler))).Methods("GET")
	apiCreate.Handle("/document/{document_id}/editor/save", api.Middleware(http.HandlerFunc(e.SaveBodyHandler))).Methods("POST")
	apiCreate.Handle("/document/{document_id}/editor", api.Middleware(http.HandlerFunc(e.CloseSessionHandler))).Methods("DELETE")

	apiCreate.Handle("/live/token", api.Middleware(http.HandlerFunc(lt.CreateLiveTokenHandler))).Methods("POST")

	// websocket auth happens in the handler: either a share token or a
	// userId query param
	r.HandleFunc("/ws/live", live.LiveWebSocketHandler)

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("minbar-api has connected to the database")

	// initialize api router
	a.initializeRoutes()

	// reap abandoned editing and outline sessions in the background
	a.reaper = scheduler.NewScheduler(a.editors, a.outlines, hub)
	a.reaper.Start()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
