package server

import (
	"crypto/subtle"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/transcript"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/upload"
)

const genericError = "Something went wrong, please try again."

type handlers struct {
	opts RouterOpts
}

// chatRequest is the body of POST /chat and of websocket frames.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the reply to one turn.
type chatResponse struct {
	Reply           string   `json:"reply"`
	LanguageOptions []string `json:"language_options,omitempty"`
}

func newChatResponse(r interview.Reply) chatResponse {
	return chatResponse{Reply: r.Text, LanguageOptions: r.LanguageOptions}
}

// registerRoutes sets up all routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/", h.index)
	router.POST("/chat", h.chat)
	router.GET("/ws", h.websocket)
	router.POST("/upload", h.upload)
	router.GET("/uploads/:kind/:name", h.download)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if h.opts.Transcripts != nil {
		api := router.Group("/api", requireToken(h.opts.APIToken))
		api.GET("/transcripts", h.listTranscripts)
		api.GET("/transcripts/:name", h.showTranscript)
	}
	if h.opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))
	}
}

// index starts a fresh visit: any previous session is discarded and a new
// session cookie is issued.
func (h *handlers) index(c *gin.Context) {
	if old, err := c.Cookie(h.opts.CookieName); err == nil && old != "" {
		if err := h.opts.Service.Reset(c.Request.Context(), old); err != nil {
			log.Printf("server: reset session %s: %v", old, err)
		}
	}
	h.setSessionCookie(c, uuid.NewString())
	c.HTML(http.StatusOK, "index.html", gin.H{})
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id := h.sessionID(c)
	reply, err := h.opts.Service.Handle(c.Request.Context(), id, req.Message)
	if err != nil {
		log.Printf("server: chat turn for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	c.JSON(http.StatusOK, newChatResponse(reply))
}

func (h *handlers) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file received."})
		return
	}
	kind := c.PostForm("type")

	f, err := fh.Open()
	if err != nil {
		log.Printf("server: open upload %q: %v", fh.Filename, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file received."})
		return
	}
	defer f.Close()

	key, err := h.opts.Uploads.Save(c.Request.Context(), kind, fh.Filename, f, fh.Size)
	if errors.Is(err, upload.ErrInvalidName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file name."})
		return
	}
	if err != nil {
		log.Printf("server: save upload %q: %v", fh.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": upload.Title(kind) + " uploaded successfully!",
		"key":     key,
	})
}

func (h *handlers) download(c *gin.Context) {
	key := c.Param("kind") + "/" + c.Param("name")
	obj, err := h.opts.Uploads.Open(c.Request.Context(), key)
	if errors.Is(err, upload.ErrNotFound) || errors.Is(err, upload.ErrInvalidName) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		log.Printf("server: open upload %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	defer obj.Body.Close()
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}

// requireToken rejects requests without "Authorization: Bearer <token>".
func requireToken(token string) gin.HandlerFunc {
	want := []byte("Bearer " + token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type transcriptEntry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

func (h *handlers) listTranscripts(c *gin.Context) {
	entries, err := h.opts.Transcripts.List()
	if err != nil {
		log.Printf("server: list transcripts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	out := make([]transcriptEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, transcriptEntry{
			Name:     e.Name,
			Size:     e.Size,
			Modified: e.ModTime.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"transcripts": out})
}

func (h *handlers) showTranscript(c *gin.Context) {
	rec, err := h.opts.Transcripts.Read(c.Param("name"))
	if errors.Is(err, transcript.ErrNotFound) || errors.Is(err, transcript.ErrInvalidName) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		log.Printf("server: read transcript %s: %v", c.Param("name"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
		return
	}
	c.JSON(http.StatusOK, transcriptView{
		Name:        rec.Name,
		Language:    rec.Language,
		CompletedAt: rec.CompletedAt,
		Answers:     rec.Answers,
	})
}

// transcriptView is a record as served over HTTP. The session ID stays
// private since it doubles as the visitor's cookie.
type transcriptView struct {
	Name        string             `json:"name"`
	Language    string             `json:"language"`
	CompletedAt time.Time          `json:"completed_at"`
	Answers     transcript.Answers `json:"answers"`
}

// sessionID returns the visitor's session ID, issuing a cookie when absent.
func (h *handlers) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(h.opts.CookieName); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	h.setSessionCookie(c, id)
	return id
}

func (h *handlers) setSessionCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, id, 0, "/", "", h.opts.CookieSecure, true)
}
