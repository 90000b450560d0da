// Package router exposes the news service over HTTP.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/newsaggr/internal/auth"
	"github.com/patric-chuzhbe/newsaggr/internal/authenticator"
	"github.com/patric-chuzhbe/newsaggr/internal/gzippedhttp"
	"github.com/patric-chuzhbe/newsaggr/internal/ipchecker"
	"github.com/patric-chuzhbe/newsaggr/internal/logger"
	"github.com/patric-chuzhbe/newsaggr/internal/models"
	"github.com/patric-chuzhbe/newsaggr/internal/service"
	"github.com/patric-chuzhbe/newsaggr/internal/user"
)

type accountService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
	GetPreferences(ctx context.Context, userID string) ([]string, error)
	UpdatePreferences(ctx context.Context, userID string, preferences []string) ([]string, error)
}

type newsService interface {
	GetNews(ctx context.Context, userID string, query models.NewsQuery) (models.NewsPage, error)
	SearchNews(ctx context.Context, userID, keyword string, query models.NewsQuery) (models.NewsPage, error)
	BrowseStored(ctx context.Context, userID, keyword string, categories []string) ([]models.ArticleView, error)
	MarkRead(ctx context.Context, userID, articleID string) error
	MarkFavorite(ctx context.Context, userID, articleID string) error
	RemoveFavorite(ctx context.Context, userID, articleID string) error
	GetReadArticles(ctx context.Context, userID string) ([]models.ArticleView, error)
	GetFavoriteArticles(ctx context.Context, userID string) ([]models.ArticleView, error)
}

type adminService interface {
	Ping(ctx context.Context) error
	GetInternalStats(ctx context.Context) models.InternalStatsResponse
	ClearCache()
}

type appService interface {
	accountService
	newsService
	adminService
}

// Router holds the handlers and what they depend on.
type Router struct {
	svc             appService
	auth            authenticator.Authenticator
	ipChecker       *ipchecker.IPChecker
	validate        *validator.Validate
	defaultPageSize int
	maxPageSize     int
	defaultLanguage string
	requestTimeout  time.Duration
}

// Option customizes the Router.
type Option func(*Router)

// WithPageSizes sets the page size used without ?limit= and the upper bound
// for it.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(r *Router) {
		if defaultSize > 0 {
			r.defaultPageSize = defaultSize
		}
		if maxSize > 0 {
			r.maxPageSize = maxSize
		}
	}
}

func WithDefaultLanguage(language string) Option {
	return func(r *Router) {
		if language != "" {
			r.defaultLanguage = language
		}
	}
}

// WithRequestTimeout bounds every request, upstream provider calls included.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(r *Router) {
		if timeout > 0 {
			r.requestTimeout = timeout
		}
	}
}

func validateCategory(fieldLevel validator.FieldLevel) bool {
	return models.IsValidCategory(fieldLevel.Field().String())
}

func newValidator() *validator.Validate {
	validate := validator.New()
	if err := validate.RegisterValidation("category", validateCategory); err != nil {
		panic(err)
	}
	return validate
}

// New builds the chi router with every route and middleware mounted.
func New(
	svc appService,
	authMiddleware authenticator.Authenticator,
	ipChecker *ipchecker.IPChecker,
	optionsProto ...Option,
) *chi.Mux {
	r := &Router{
		svc:             svc,
		auth:            authMiddleware,
		ipChecker:       ipChecker,
		validate:        newValidator(),
		defaultPageSize: 20,
		maxPageSize:     100,
		defaultLanguage: "en",
		requestTimeout:  30 * time.Second,
	}
	for _, protoOption := range optionsProto {
		protoOption(r)
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		middleware.Timeout(r.requestTimeout),
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)

	router.Get("/ping", r.GetPing)

	router.Route("/users", func(users chi.Router) {
		users.Post("/signup", r.PostSignup)
		users.Post("/login", r.PostLogin)
		users.With(r.auth.AuthenticateUser).Get("/preferences", r.GetPreferences)
		users.With(r.auth.AuthenticateUser).Put("/preferences", r.PutPreferences)
	})

	router.Route("/news", func(news chi.Router) {
		news.Get("/categories", r.GetCategories)

		news.Group(func(authed chi.Router) {
			authed.Use(r.auth.AuthenticateUser)
			authed.Get("/", r.GetNews)
			authed.Get("/search/{keyword}", r.GetSearch)
			authed.Get("/stored", r.GetStoredArticles)
			authed.Get("/read", r.GetReadArticles)
			authed.Get("/favorites", r.GetFavoriteArticles)
			authed.Post("/{id}/read", r.PostRead)
			authed.Post("/{id}/favorite", r.PostFavorite)
			authed.Delete("/{id}/favorite", r.DeleteFavorite)
		})
	})

	router.Route("/internal", func(internal chi.Router) {
		internal.Use(r.ipChecker.TrustedOnly)
		internal.Get("/stats", r.GetInternalStats)
		internal.Delete("/cache", r.DeleteInternalCache)
	})

	return router
}

func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.svc.Ping(request.Context()); err != nil {
		logger.Log.Errorw("storage ping failed", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "storage unavailable")
		return
	}
	writeJSON(response, http.StatusOK, models.MessageResponse{Message: "ok"})
}

func (r *Router) PostSignup(response http.ResponseWriter, request *http.Request) {
	var req models.SignupRequest
	if !r.decodeAndValidate(response, request, &req) {
		return
	}

	usr, err := r.svc.Signup(request.Context(), req)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	token, expiresAt, err := r.auth.IssueToken(usr.ID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}
	r.auth.SetAuthCookie(response, token, expiresAt)

	writeJSON(response, http.StatusCreated, models.SignupResponse{
		User:  profileOf(usr),
		Token: token,
	})
}

func (r *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var req models.LoginRequest
	if !r.decodeAndValidate(response, request, &req) {
		return
	}

	usr, err := r.svc.Login(request.Context(), req.Email, req.Password)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	token, expiresAt, err := r.auth.IssueToken(usr.ID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}
	r.auth.SetAuthCookie(response, token, expiresAt)

	writeJSON(response, http.StatusOK, models.LoginResponse{Token: token, ExpiresAt: expiresAt})
}

func (r *Router) GetPreferences(response http.ResponseWriter, request *http.Request) {
	userID, ok := r.requireUserID(response, request)
	if !ok {
		return
	}

	preferences, err := r.svc.GetPreferences(request.Context(), userID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.PreferencesResponse{Preferences: preferences})
}

func (r *Router) PutPreferences(response http.ResponseWriter, request *http.Request) {
	userID, ok := r.requireUserID(response, request)
	if !ok {
		return
	}

	var req models.PreferencesRequest
	if !r.decodeAndValidate(response, request, &req) {
		return
	}

	preferences, err := r.svc.UpdatePreferences(request.Context(), userID, req.Preferences)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.PreferencesResponse{Preferences: preferences})
}

func (r *Router) GetCategories(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, models.CategoriesResponse{Categories: models.Categories})
}

func (r *Router) GetNews(response http.ResponseWriter, request *http.Request) {
	userID, ok := r.requireUserID(response, request)
	if !ok {
		return
	}

	query, ok := r.parseNewsQuery(response, request)
	if !ok {
		return
	}

	page, err := r.svc.GetNews(request.Context(), userID, query)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, page)
}

func (r *Router) GetSearch(response http.ResponseWriter, request *http.Request) {
	userID, ok := r.requireUserID(response, request)
	if !ok {
		return
	}

	keyword, err := url.PathUnescape(chi.URLParam(request, "keyword"))
	if err != nil {
		writeError(response, http.StatusBadRequest, "malformed keyword")
		return
	}
	search := models.SearchRequest{Keyword: strings.TrimSpace(keyword)}
	if err := r.validate.Struct(search); err != nil {
		writeError(response, http.StatusBadRequest, validationMessage(err))
		return
	}

	query, ok := r.parseNewsQuery(response, request)
	if !ok {
		return
	}

	page, err := r.svc.SearchNews(request.Context(), userID, search.Keyword, query)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, page)
}

// GetStoredArticles lists articles seen in earlier aggregations. It accepts
// q for a keyword and category as a comma separated list.
func (r *Router) GetStoredArticles(response http.ResponseWriter, request *http.Request) {
	userID, ok := r.requireUserID(response, request)
	if !ok {
		return
	}

	values := request.URL.Query()
	query := models.StoredQuery{Keyword: strings.TrimSpace(values.Get("q"))}
	for _, category := range strings.Split(values.Get("category"), ",") {
		if category = strings.ToLower(strings.TrimSpace(category)); category != "" {
			query.Categories = append(query.Categories, category)
		}
	}
	if err := r.validate.Struct(query); err != nil {
		writeError(response, http.StatusBadRequest, validationMessage(err))
		return
	}

	articles, err := r.svc.BrowseStored(request.Context(), userID, query.Keyword, query.Categories)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.ArticlesResponse{Articles: articles, Count: len(articles)})
}

func (r *Router) GetReadArticles(response http.ResponseWriter, request *http.Request) {
	r.writeArticleList(response, request, r.svc.GetReadArticles)
}

func (r *Router) GetFavoriteArticles(response http.ResponseWriter, request *http.Request) {
	r.writeArticleList(response, request, r.svc.GetFavoriteArticles)
}

func (r *Router) PostRead(response http.ResponseWriter, request *http.Request) {
	r.markArticle(response, request, r.svc.MarkRead, "article marked as read")
}

func (r *Router) PostFavorite(response http.ResponseWriter, request *http.Request) {
	r.markArticle(response, request, r.svc.MarkFavorite, "article added to favorites")
}

func (r *Router) DeleteFavorite(response http.ResponseWriter, request *http.Request) {
	r.markArticle(response, request, r.svc.RemoveFavorite, "article removed from favorites")
}

func (r *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, r.svc.GetInternalStats(request.Context()))
}

func (r *Router) DeleteInternalCache(response http.ResponseWriter, request *http.Request) {
	r.svc.ClearCache()
	logger.Log.Infow("provider cache cleared")
	writeJSON(response, http.StatusOK, models.MessageResponse{Message: "cache cleared"})
}

func (r *Router) writeArticleList(
	response http.ResponseWriter,
	request *http.Request,
	list func(ctx context.Context, userID string) ([]models.ArticleView, error),
) {
	userID, ok := r.requireUserID(response, request)
	if !ok {
		return
	}

	articles, err := list(request.Context(), userID)
	if err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.ArticlesResponse{Articles: articles, Count: len(articles)})
}

func (r *Router) markArticle(
	response http.ResponseWriter,
	request *http.Request,
	mark func(ctx context.Context, userID, articleID string) error,
	message string,
) {
	userID, ok := r.requireUserID(response, request)
	if !ok {
		return
	}

	articleID := chi.URLParam(request, "id")
	if err := mark(request.Context(), userID, articleID); err != nil {
		r.writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: message})
}

func (r *Router) requireUserID(response http.ResponseWriter, request *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeError(response, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
	}
	return userID, ok
}

func (r *Router) parseNewsQuery(response http.ResponseWriter, request *http.Request) (models.NewsQuery, bool) {
	values := request.URL.Query()
	query := models.NewsQuery{
		Page:     1,
		Limit:    r.defaultPageSize,
		Language: r.defaultLanguage,
	}

	var err error
	if raw := values.Get("page"); raw != "" {
		if query.Page, err = strconv.Atoi(raw); err != nil {
			writeError(response, http.StatusBadRequest, "page must be an integer")
			return query, false
		}
	}
	if raw := values.Get("limit"); raw != "" {
		if query.Limit, err = strconv.Atoi(raw); err != nil {
			writeError(response, http.StatusBadRequest, "limit must be an integer")
			return query, false
		}
	}
	if raw := values.Get("language"); raw != "" {
		query.Language = strings.ToLower(raw)
	}

	if err := r.validate.Struct(query); err != nil {
		writeError(response, http.StatusBadRequest, validationMessage(err))
		return query, false
	}
	query.Limit = min(query.Limit, r.maxPageSize)

	return query, true
}

func (r *Router) decodeAndValidate(response http.ResponseWriter, request *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(request.Body)
	if err := decoder.Decode(target); err != nil {
		writeError(response, http.StatusBadRequest, "malformed JSON body")
		return false
	}

	if err := r.validate.Struct(target); err != nil {
		writeError(response, http.StatusBadRequest, validationMessage(err))
		return false
	}

	return true
}

func (r *Router) writeServiceError(response http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		writeError(response, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(response, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrArticleNotFound):
		writeError(response, http.StatusNotFound, err.Error())
	default:
		logger.Log.Errorw("request failed", zap.Error(err))
		writeError(response, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Field()+" failed on "+fieldErr.Tag())
	}
	return strings.Join(messages, "; ")
}

func profileOf(usr *user.User) models.UserProfile {
	return models.UserProfile{
		ID:          usr.ID,
		Name:        usr.Name,
		Email:       usr.Email,
		Preferences: usr.Preferences,
		CreatedAt:   usr.CreatedAt,
	}
}

func writeJSON(response http.ResponseWriter, status int, body interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugw("writing response body", zap.Error(err))
	}
}

func writeError(response http.ResponseWriter, status int, message string) {
	writeJSON(response, status, models.ErrorResponse{Error: message})
}
