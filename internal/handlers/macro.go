package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/sndctl/internal/macro"
	"github.com/pandeptwidyaop/sndctl/internal/models"
	"github.com/pandeptwidyaop/sndctl/internal/services"
)

// MacroHandler handles HTTP requests for macro operations.
type MacroHandler struct {
	macroService    *services.MacroService
	executorService *services.ExecutorService
	auditService    *services.AuditService
	maxImportSize   int64
}

// NewMacroHandler creates a new MacroHandler instance.
func NewMacroHandler(macroService *services.MacroService, executorService *services.ExecutorService, auditService *services.AuditService, maxImportSize int64) *MacroHandler {
	return &MacroHandler{
		macroService:    macroService,
		executorService: executorService,
		auditService:    auditService,
		maxImportSize:   maxImportSize,
	}
}

// macroView adds derived fields to a stored macro.
type macroView struct {
	models.Macro
	ArgumentCount int `json:"argumentCount"`
}

func viewOf(m models.Macro) macroView {
	return macroView{Macro: m, ArgumentCount: macro.ArgumentCount(m.Body)}
}

func viewsOf(macros []models.Macro) []macroView {
	out := make([]macroView, len(macros))
	for i, m := range macros {
		out[i] = viewOf(m)
	}
	return out
}

func clientOf(c *gin.Context) services.Client {
	return services.Client{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// List returns all macros in file order.
// GET /api/macro
func (h *MacroHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, viewsOf(h.macroService.List()))
}

// Info describes the macro store.
// GET /api/macro/info
func (h *MacroHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.macroService.Info())
}

// Search fuzzy-matches macros.
// GET /api/macro/search?q=
func (h *MacroHandler) Search(c *gin.Context) {
	c.JSON(http.StatusOK, viewsOf(h.macroService.Search(c.Query("q"))))
}

// Favorites returns the favourite macros.
// GET /api/macro/favorites
func (h *MacroHandler) Favorites(c *gin.Context) {
	c.JSON(http.StatusOK, viewsOf(h.macroService.Favorites()))
}

// Get returns a single macro.
// GET /api/macro/get/:name
func (h *MacroHandler) Get(c *gin.Context) {
	name := c.Param("name")

	m, err := h.macroService.Get(name)
	if err != nil {
		h.respondError(c, name, err)
		return
	}

	c.JSON(http.StatusOK, viewOf(m))
}

// Save creates or replaces a macro.
// POST /api/macro/save
func (h *MacroHandler) Save(c *gin.Context) {
	var req models.SaveMacroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.macroService.Upsert(req.ToMacro())
	if err != nil {
		h.respondError(c, req.Name, err)
		return
	}

	h.auditService.LogMacro(services.ActionSave, saved.Name, clientOf(c), map[string]interface{}{
		"lines": len(saved.Body),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "macro": viewOf(saved)})
}

// Delete removes a macro.
// DELETE /api/macro/delete/:name
func (h *MacroHandler) Delete(c *gin.Context) {
	name := c.Param("name")

	deleted, err := h.macroService.Delete(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		h.respondError(c, name, macro.ErrNotFound)
		return
	}

	h.auditService.LogMacro(services.ActionDelete, name, clientOf(c), nil)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "macro deleted"})
}

// Duplicate copies a macro under a new name.
// POST /api/macro/duplicate/:name
func (h *MacroHandler) Duplicate(c *gin.Context) {
	name := c.Param("name")

	clone, err := h.macroService.Duplicate(name)
	if err != nil {
		h.respondError(c, name, err)
		return
	}

	h.auditService.LogMacro(services.ActionDuplicate, clone.Name, clientOf(c), map[string]interface{}{
		"source": name,
	})

	c.JSON(http.StatusOK, viewOf(clone))
}

// Execute runs a macro with arguments. With async the execution continues
// in the background and can be followed via the stream endpoints.
// POST /api/macro/execute
func (h *MacroHandler) Execute(c *gin.Context) {
	var req models.ExecuteMacroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MacroName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "macroName is required"})
		return
	}

	h.execute(c, req.MacroName, req.Arguments, req.Async)
}

// ExecuteByName runs a macro without a request body. Arguments may be passed
// as repeated arg query parameters.
// GET /api/macro/execute/:name
func (h *MacroHandler) ExecuteByName(c *gin.Context) {
	async, _ := strconv.ParseBool(c.Query("async"))
	h.execute(c, c.Param("name"), c.QueryArray("arg"), async)
}

func (h *MacroHandler) execute(c *gin.Context, name string, args []string, async bool) {
	if args == nil {
		args = []string{}
	}

	var (
		result *models.ExecutionResult
		err    error
	)
	if async {
		result, err = h.executorService.Start(name, args)
	} else {
		result, err = h.executorService.Execute(c.Request.Context(), name, args)
	}
	if err != nil {
		h.respondError(c, name, err)
		return
	}

	h.auditService.LogExecute(name, result.ID, args, clientOf(c))

	if async {
		c.JSON(http.StatusAccepted, gin.H{
			"execution": result,
			"streamUrl": "executions/" + result.ID + "/stream",
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListExecutions returns the retained executions, newest first.
// GET /api/macro/executions
func (h *MacroHandler) ListExecutions(c *gin.Context) {
	c.JSON(http.StatusOK, h.executorService.History())
}

// GetExecution returns one execution.
// GET /api/macro/executions/:id
func (h *MacroHandler) GetExecution(c *gin.Context) {
	result, err := h.executorService.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrExecutionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelExecution stops a running execution at the next step.
// POST /api/macro/executions/:id/cancel
func (h *MacroHandler) CancelExecution(c *gin.Context) {
	err := h.executorService.Cancel(c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"message": "cancellation requested"})
	case errors.Is(err, services.ErrExecutionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "execution not found"})
	case errors.Is(err, services.ErrExecutionFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Reload re-reads the macro store.
// POST /api/macro/reload
func (h *MacroHandler) Reload(c *gin.Context) {
	if err := h.macroService.Reload(); err != nil {
		h.respondError(c, "", err)
		return
	}

	count := len(h.macroService.List())
	h.auditService.LogReload(clientOf(c), count)

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// Export downloads the macro document.
// GET /api/macro/export
func (h *MacroHandler) Export(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="macros.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(h.macroService.RawContent()))
}

// Import uploads a macro document, replacing the collection unless merge=true.
// POST /api/macro/import
func (h *MacroHandler) Import(c *gin.Context) {
	merge, _ := strconv.ParseBool(c.DefaultQuery("merge", c.PostForm("merge")))

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if h.maxImportSize > 0 && file.Size > h.maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds the %d byte import limit", h.maxImportSize),
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.macroService.Import(string(content), merge)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, macro.ErrParse) {
			status = http.StatusBadRequest
		}
		c.JSON(status, outcome)
		return
	}

	h.auditService.LogImport(clientOf(c), merge, outcome.ImportedCount)

	c.JSON(http.StatusOK, outcome)
}

// respondError maps macro errors to HTTP responses.
func (h *MacroHandler) respondError(c *gin.Context, name string, err error) {
	var missing *macro.MissingArgumentError
	switch {
	case errors.Is(err, macro.ErrNotFound):
		body := gin.H{"error": fmt.Sprintf("macro %q not found", name)}
		if suggestions := h.macroService.Suggest(name, 3); len(suggestions) > 0 {
			body["suggestions"] = suggestions
		}
		c.JSON(http.StatusNotFound, body)
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    err.Error(),
			"index":    missing.Index,
			"supplied": missing.Supplied,
		})
	case errors.Is(err, macro.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, macro.ErrParse):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
