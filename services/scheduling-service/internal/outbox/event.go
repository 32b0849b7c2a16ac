package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType: one event type per topic.
type Event struct {
	BusinessID    string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateTimeBlock = "time_block"
	AggregateJob       = "job"
	AggregateBusiness  = "business"

	TimeBlockCreated     = "schedule.time_block.created.v1"
	TimeBlockDeleted     = "schedule.time_block.deleted.v1"
	JobRescheduled       = "schedule.job.rescheduled.v1"
	JobBooked            = "schedule.job.booked.v1"
	JobStatusChanged     = "schedule.job.status_changed.v1"
	BusinessHoursUpdated = "schedule.business_hours.updated.v1"
)
