package server

import (
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/drevalle/caterops/internal/config"
	"github.com/drevalle/caterops/internal/costing"
	"github.com/drevalle/caterops/internal/handlers"
	"github.com/drevalle/caterops/internal/httpx"
	"github.com/drevalle/caterops/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares
// applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	resolver := &costing.CostResolver{IncludeTax: cfg.CostIncludeTax}
	newRecipeSvc := func(db *gorm.DB) *services.RecipeService {
		return services.NewRecipeService(db, cfg.CostIncludeTax, cfg.MaxRecipeDepth)
	}
	recipeSvc := newRecipeSvc(db)
	policy := costing.Policy{IncludeCompleted: cfg.PlanIncludeCompleted}

	ih := handlers.NewIngredientHandler(db, resolver)
	mux.HandleFunc("/ingredients", listCreate(ih.List, ih.Create))
	mux.HandleFunc("/ingredients/update", postOnly(ih.Update))
	mux.HandleFunc("/ingredients/delete", postOnly(ih.Delete))
	mux.HandleFunc("/ingredients/low-stock", getOnly(ih.LowStock))
	mux.HandleFunc("/ingredients/history", getOnly(ih.History))

	rh := handlers.NewRecipeHandler(db, recipeSvc, newRecipeSvc)
	mux.HandleFunc("/recipes", listCreate(rh.List, rh.Create))
	mux.HandleFunc("/recipes/cost", getOnly(rh.Cost))
	mux.HandleFunc("/recipes/scale", getOnly(rh.Scale))
	mux.HandleFunc("/recipes/update", postOnly(rh.Update))
	mux.HandleFunc("/recipes/delete", postOnly(rh.Delete))

	eh := handlers.NewEventHandler(db, services.NewEventService(db, recipeSvc))
	mux.HandleFunc("/events", listCreate(eh.List, eh.Create))
	mux.HandleFunc("/events/orders", postOnly(eh.AddOrder))
	mux.HandleFunc("/events/status", postOnly(eh.Status))
	mux.HandleFunc("/events/delete", postOnly(eh.Delete))

	ph := handlers.NewProductionHandler(services.NewProductionService(db, policy, cfg.MaxRecipeDepth))
	mux.HandleFunc("/production/plan", getOnly(ph.Plan))
	mux.HandleFunc("/production/shopping-list", getOnly(ph.ShoppingList))

	esth := handlers.NewEstimationHandler(services.NewEstimationService())
	mux.HandleFunc("/estimation/beverages", postOnly(esth.Beverages))

	simh := handlers.NewSimulationHandler(services.NewSimulationService(db, cfg.CostIncludeTax, cfg.MaxRecipeDepth))
	mux.HandleFunc("/simulation/inflation", postOnly(simh.Inflation))

	ch := handlers.NewCatalogHandler(db)
	mux.HandleFunc("/units", getOnly(ch.Units))
	mux.HandleFunc("/tags", listCreate(ch.Tags, ch.CreateTag))

	return withRecover(withLogging(mux))
}

func listCreate(list, create http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	}
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
