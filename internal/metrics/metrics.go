package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	shiftAssigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "shift_assigned_total",
			Help:      "按门店和是否需要员工确认统计的排班次数",
		},
		[]string{"store", "pending"},
	)

	shiftRequestResponded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "shift_request_responded_total",
			Help:      "员工对排班请求的回复次数",
		},
		[]string{"decision"},
	)

	scheduleReleased = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "schedule_released_total",
			Help:      "排班表发布次数",
		},
		[]string{"store"},
	)

	availabilitySubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "availability_submitted_total",
			Help:      "空闲时间提交次数",
		},
		[]string{"store"},
	)

	absenceCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "absence_created_total",
			Help:      "按类型和初始状态统计的缺勤记录数",
		},
		[]string{"type", "status"},
	)

	deviationReported = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "deviation_reported_total",
			Help:      "迟到和早退的上报次数",
		},
		[]string{"kind"},
	)

	weekCopied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "week_copy_shifts_total",
			Help:      "复制周排班时复制和跳过的班次数",
		},
		[]string{"result"},
	)

	mailPublishFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "mail_publish_failed_total",
			Help:      "投递到邮件队列失败的次数",
		},
	)

	writeConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freshshift",
			Name:      "write_conflict_total",
			Help:      "乐观锁冲突次数",
		},
		[]string{"collection"},
	)
)

// Register 注册所有指标，可以重复调用
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			shiftAssigned,
			shiftRequestResponded,
			scheduleReleased,
			availabilitySubmitted,
			absenceCreated,
			deviationReported,
			weekCopied,
			mailPublishFailed,
			writeConflicts,
		)
	})
}

func IncShiftAssigned(store string, pending bool) {
	label := "false"
	if pending {
		label = "true"
	}
	shiftAssigned.WithLabelValues(store, label).Inc()
}

func IncShiftRequestResponded(decision string) {
	shiftRequestResponded.WithLabelValues(decision).Inc()
}

func IncScheduleReleased(store string) {
	scheduleReleased.WithLabelValues(store).Inc()
}

func IncAvailabilitySubmitted(store string) {
	availabilitySubmitted.WithLabelValues(store).Inc()
}

func IncAbsenceCreated(typ, status string) {
	absenceCreated.WithLabelValues(typ, status).Inc()
}

func IncDeviationReported(kind string) {
	deviationReported.WithLabelValues(kind).Inc()
}

func AddWeekCopied(copied, skipped int) {
	weekCopied.WithLabelValues("copied").Add(float64(copied))
	weekCopied.WithLabelValues("skipped").Add(float64(skipped))
}

func IncMailPublishFailed() {
	mailPublishFailed.Inc()
}

func IncWriteConflict(collection string) {
	writeConflicts.WithLabelValues(collection).Inc()
}
