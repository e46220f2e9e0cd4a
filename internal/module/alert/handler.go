package alert

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/pkg/common/paging"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/pkg/response"
	service "github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/service/alert"
	apierrors "github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/errors"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/model/alert"
)

// MarkAllReadResults is the body of a successful read-all call.
type MarkAllReadResults struct {
	UpdatedCount int64 `json:"updated_count"` // alerts actually transitioned unread -> read
}

// UnreadCountResults is the body of the unread badge endpoint.
type UnreadCountResults struct {
	Unread int64 `json:"unread"`
}

// HandlerGetAlerts 获取报警列表.
// @Summary List alerts.
// @Description Lists alerts newest first, optionally filtered by read state. Without paging parameters every match is returned.
// @Tags alerts
// @Produce json
// @Param read_state query string false "Read-state filter" Enums(all, unread, read) default(all)
// @Param paging query bool false "Enable paging"
// @Param page query int false "Page number" minimum(1)
// @Param page_size query int false "Alerts per page, capped at 100" minimum(1) maximum(100)
// @Success 200 {object} response.Response{results=alert.Alerts}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/alerts [get]
func (rt *Router) HandlerGetAlerts(c *gin.Context) {
	state, err := alert.ParseReadState(c.DefaultQuery("read_state", "all"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		return
	}

	var pq paging.PagingQuery
	_ = c.ShouldBindQuery(&pq)

	f := service.Filter{ReadState: state}
	if pq.Paging || pq.Page > 0 || pq.PageSize > 0 {
		pq.Paging = true
		pq.SetDefaults(1, 20, 100)
		f.Page = pq.Page
		f.PageSize = pq.PageSize
	}

	alerts, total, err := rt.svc.List(c.Request.Context(), f)
	if err != nil {
		rt.fail(c, "unable to list alerts", err)
		return
	}

	var prev, next url.URL
	if pq.Paging {
		prev, next = response.BuildPageLinks(c.Request.URL, pq.Page, pq.PageSize, total)
	}
	c.JSON(http.StatusOK, response.Response{Count: total, Previous: prev, Next: next, Results: alerts})
}

// HandlerGetUnreadCount 获取未读报警数量.
// @Summary Count unread alerts.
// @Description Returns the number of alerts not yet marked read, for notification badges.
// @Tags alerts
// @Produce json
// @Success 200 {object} response.Response{results=UnreadCountResults}
// @Failure 503 {object} response.Response
// @Router /api/v1/alerts/unread/count [get]
func (rt *Router) HandlerGetUnreadCount(c *gin.Context) {
	n, err := rt.svc.Unread(c.Request.Context())
	if err != nil {
		rt.fail(c, "unable to count unread alerts", err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: 1, Results: UnreadCountResults{Unread: n}})
}

// HandlerMarkAlertRead 标记单条报警为已读.
// @Summary Mark one alert read.
// @Description Transitions the alert to read and returns the updated record. Marking an already-read alert succeeds unchanged.
// @Tags alerts
// @Produce json
// @Param id path int true "Alert id"
// @Success 200 {object} response.Response{results=alert.Alert}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/alerts/{id}/read [patch]
func (rt *Router) HandlerMarkAlertRead(c *gin.Context) {
	id, ok := rt.alertID(c)
	if !ok {
		return
	}
	a, err := rt.svc.MarkRead(c.Request.Context(), id)
	if err != nil {
		rt.fail(c, "unable to mark alert read", err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: 1, Results: a})
}

// HandlerMarkAllAlertsRead 标记所有报警为已读.
// @Summary Mark every alert read.
// @Description Transitions every unread alert to read and returns the count actually transitioned. Safe to call with nothing unread.
// @Tags alerts
// @Produce json
// @Success 200 {object} response.Response{results=MarkAllReadResults}
// @Failure 503 {object} response.Response
// @Router /api/v1/alerts/read-all [post]
func (rt *Router) HandlerMarkAllAlertsRead(c *gin.Context) {
	n, err := rt.svc.MarkAllRead(c.Request.Context())
	if err != nil {
		rt.fail(c, "unable to mark alerts read", err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: 1, Results: MarkAllReadResults{UpdatedCount: n}})
}

// HandlerDeleteAlert 删除报警.
// @Summary Delete an alert.
// @Description Removes the alert permanently. Deleting an id that does not exist (a second delete included) fails with 404.
// @Tags alerts
// @Produce json
// @Param id path int true "Alert id"
// @Success 200 {object} response.Response{results=string}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/alerts/{id} [delete]
func (rt *Router) HandlerDeleteAlert(c *gin.Context) {
	id, ok := rt.alertID(c)
	if !ok {
		return
	}
	if err := rt.svc.Remove(c.Request.Context(), id); err != nil {
		rt.fail(c, "unable to delete alert", err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: 1, Results: "deleted"})
}

// alertID parses the :id path parameter; on failure it writes the 400
// response itself and returns ok=false.
func (rt *Router) alertID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "id must be a positive integer: " + raw})
		return 0, false
	}
	return id, true
}

// fail maps a service error to an HTTP status and writes the envelope. The
// store's own error text stays in the log, not the response body.
func (rt *Router) fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apierrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apierrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apierrors.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, apierrors.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		rt.logger.Error(msg, "err", err, "path", c.FullPath())
	} else {
		rt.logger.Debug(msg, "err", err, "path", c.FullPath())
	}
	c.JSON(status, response.Response{Detail: msg + ": " + publicDetail(err)})
}

// publicDetail keeps client-caused error text and hides store internals.
func publicDetail(err error) string {
	switch {
	case errors.Is(err, apierrors.ErrValidation), errors.Is(err, apierrors.ErrNotFound), errors.Is(err, apierrors.ErrDuplicateID):
		return err.Error()
	case errors.Is(err, apierrors.ErrStoreUnavailable):
		return apierrors.ErrStoreUnavailable.Error()
	default:
		return "internal error"
	}
}
