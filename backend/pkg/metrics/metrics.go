package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	prommetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmw "github.com/slok/go-http-metrics/middleware"
	ginmw "github.com/slok/go-http-metrics/middleware/gin"
)

const (
	metricsNamespace = "absensi"
	insideLabel      = "inside"
	codeLabel        = "code"
)

// Code 签到码校验结果标签值
const (
	CodeAbsent  = "absent"
	CodeValid   = "valid"
	CodeInvalid = "invalid"
)

// Metrics 业务指标与 HTTP 指标
type Metrics interface {
	Middleware() gin.HandlerFunc
	Handler() http.Handler
	ObserveAttendance(inside bool, code string)
	ObserveCodeIssued()
}

type service struct {
	registry        *prometheus.Registry
	middleware      httpmw.Middleware
	attendanceCount *prometheus.CounterVec
	codeCount       prometheus.Counter
}

var _ Metrics = (*service)(nil)

// New 创建独立的 Prometheus Registry，避免污染全局默认注册表
func New() Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	attendanceCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "attendance",
			Name:      "recorded_total",
			Help:      "Total number of attendance records",
		},
		[]string{insideLabel, codeLabel},
	)
	reg.MustRegister(attendanceCount)

	codeCount := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "code",
		Name:      "issued_total",
		Help:      "Total number of check-in codes issued",
	})
	reg.MustRegister(codeCount)

	return &service{
		registry: reg,
		middleware: httpmw.New(httpmw.Config{
			Service:  metricsNamespace,
			Recorder: prommetrics.NewRecorder(prommetrics.Config{Registry: reg}),
		}),
		attendanceCount: attendanceCount,
		codeCount:       codeCount,
	}
}

// Middleware HTTP 请求指标（handlerID 取自路由模板）
func (s *service) Middleware() gin.HandlerFunc {
	return ginmw.Handler("", s.middleware)
}

// Handler /metrics 暴露端点
func (s *service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

func (s *service) ObserveAttendance(inside bool, code string) {
	s.attendanceCount.With(prometheus.Labels{
		insideLabel: strconv.FormatBool(inside),
		codeLabel:   code,
	}).Inc()
}

func (s *service) ObserveCodeIssued() {
	s.codeCount.Inc()
}

// Nop 不记录任何指标，供测试与未启用指标时使用
type Nop struct{}

var _ Metrics = Nop{}

func (Nop) Middleware() gin.HandlerFunc    { return func(c *gin.Context) { c.Next() } }
func (Nop) Handler() http.Handler          { return http.NotFoundHandler() }
func (Nop) ObserveAttendance(bool, string) {}
func (Nop) ObserveCodeIssued()             {}
