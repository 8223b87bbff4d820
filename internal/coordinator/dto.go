package coordinator

import "newsingest/internal/entity"

// RegisterRequest is the body of POST /api/instances/register.
type RegisterRequest struct {
	InstanceID entity.CrawlerInstance `json:"instance_id"`
	EgressIP   string                 `json:"egress_ip"`
	Meta       map[string]string      `json:"meta,omitempty"`
}

// RegisterResponse is returned by POST /api/instances/register.
type RegisterResponse struct {
	Token string `json:"token"`
}

// HeartbeatRequest is the body of POST /api/instances/heartbeat.
type HeartbeatRequest struct {
	InstanceID entity.CrawlerInstance `json:"instance_id"`
	Token      string                 `json:"token"`
	Status     string                 `json:"status,omitempty"`
	Stats      map[string]int         `json:"stats,omitempty"`
}

// HeartbeatResponse carries the caller's currently-due slot, spec §4.8:
// "so workers need no separate schedule poll between hours". Slot is nil
// when no slot is assigned to the caller for the current hour, per the
// wire protocol's `{slot: HourlySlot | null, server_time_utc, directive}`.
type HeartbeatResponse struct {
	Slot          *SlotDTO `json:"slot"`
	ServerTimeUTC string   `json:"server_time_utc"`
	Directive     string   `json:"directive"`
}

// Heartbeat directives the coordinator may send a worker. Only "continue"
// is issued today; "pause"/"shutdown" are reserved for an operator-driven
// drain that does not exist yet.
const (
	DirectiveContinue = "continue"
	DirectivePause    = "pause"
	DirectiveShutdown = "shutdown"
)

// SlotDTO is the wire shape of entity.HourlySlot.
type SlotDTO struct {
	Hour           int                    `json:"hour"`
	Instance       entity.CrawlerInstance `json:"instance"`
	Categories     []entity.NewsCategory  `json:"categories"`
	PriorityWeight int                    `json:"priority_weight"`
}

func slotDTOFrom(slot entity.HourlySlot) SlotDTO {
	return SlotDTO{
		Hour:           slot.Hour,
		Instance:       slot.Instance,
		Categories:     slot.Categories,
		PriorityWeight: slot.PriorityWeight,
	}
}

// InstanceDTO is the wire shape of entity.InstanceRecord.
type InstanceDTO struct {
	InstanceID      entity.CrawlerInstance `json:"instance_id"`
	Status          string                 `json:"status"`
	LastHeartbeatAt string                 `json:"last_heartbeat_at"`
	EgressIP        string                 `json:"egress_ip,omitempty"`
}

func instanceDTOFrom(rec entity.InstanceRecord) InstanceDTO {
	return InstanceDTO{
		InstanceID:      rec.InstanceID,
		Status:          string(rec.Status),
		LastHeartbeatAt: rec.LastHeartbeatAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		EgressIP:        rec.EgressIP,
	}
}

// ScheduleDTO is the wire shape of entity.DailySchedule, flattened for
// JSON transport (the nested instance-keyed map doesn't round-trip
// cleanly through encoding/json since CrawlerInstance is a typed string
// used as a map key at multiple levels).
type ScheduleDTO struct {
	Date             string    `json:"date"`
	RotationOrder    []entity.CrawlerInstance `json:"rotation_order"`
	GeneratorVersion int       `json:"generator_version"`
	Slots            []SlotDTO `json:"slots"`
}

func scheduleDTOFrom(sched entity.DailySchedule) ScheduleDTO {
	dto := ScheduleDTO{
		Date:             sched.Date,
		RotationOrder:    sched.RotationOrder,
		GeneratorVersion: sched.GeneratorVersion,
	}
	for hour := 0; hour < 24; hour++ {
		byInstance, ok := sched.Slots[hour]
		if !ok {
			continue
		}
		for _, instance := range sched.RotationOrder {
			if slot, ok := byInstance[instance]; ok {
				dto.Slots = append(dto.Slots, slotDTOFrom(slot))
			}
		}
	}
	return dto
}

// ErrorResponse is the JSON body of any non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
