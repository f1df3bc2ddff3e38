package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/quickcheck/internal/covid"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *covid.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/snapshot", func(c *fiber.Ctx) error {
		var q snapshotQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := currentView(service, q.Preview)
		if err != nil {
			return err
		}
		return c.JSON(view)
	})

	v1.Get("/snapshot/widget", func(c *fiber.Ctx) error {
		var q snapshotQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := currentView(service, q.Preview)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(renderWidget(view.Snapshot.Record, q.Width))
	})

	v1.Post("/snapshot/refresh", func(c *fiber.Ctx) error {
		plan, err := service.Refresh(c.UserContext(), time.Now().UTC())
		if err != nil {
			if errors.Is(err, covid.ErrSuperseded) {
				return fiber.NewError(fiber.StatusConflict, "refresh superseded by a newer request")
			}
			return fiber.NewError(fiber.StatusServiceUnavailable, "refresh abandoned")
		}
		return c.JSON(planView(plan))
	})
}

// snapshotView is the JSON shape served to widget clients.
type snapshotView struct {
	Snapshot    covid.Snapshot    `json:"snapshot"`
	ValidUntil  *time.Time        `json:"validUntil,omitempty"`
	Preview     bool              `json:"preview"`
	Proportions covid.Proportions `json:"proportions"`
	Counters    []counterView     `json:"counters"`
}

func planView(plan covid.RefreshPlan) snapshotView {
	validUntil := plan.ValidUntil
	return snapshotView{
		Snapshot:    plan.Snapshot,
		ValidUntil:  &validUntil,
		Proportions: covid.ProportionsOf(plan.Snapshot.Record),
		Counters:    countersOf(plan.Snapshot.Record),
	}
}

func previewView(snap covid.Snapshot) snapshotView {
	return snapshotView{
		Snapshot:    snap,
		Preview:     true,
		Proportions: covid.ProportionsOf(snap.Record),
		Counters:    countersOf(snap.Record),
	}
}

func currentView(service *covid.Service, preview bool) (snapshotView, error) {
	if preview {
		return previewView(service.Preview(time.Now().UTC())), nil
	}

	plan, err := service.Latest()
	if err != nil {
		if errors.Is(err, covid.ErrNoPlan) {
			return snapshotView{}, fiber.NewError(fiber.StatusNotFound, "no snapshot available yet")
		}
		return snapshotView{}, fiber.NewError(fiber.StatusInternalServerError, "failed to load snapshot")
	}
	return planView(plan), nil
}

// snapshotQuery holds query parameters shared by the snapshot endpoints.
type snapshotQuery struct {
	Preview bool
	Width   int `validate:"omitempty,min=5,max=80"`
}

func (q *snapshotQuery) bind(c *fiber.Ctx) error {
	if s := c.Query("preview"); s != "" {
		preview, err := strconv.ParseBool(s)
		if err != nil {
			return errors.New("preview must be a boolean")
		}
		q.Preview = preview
	}

	if s := c.Query("width"); s != "" {
		width, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("width must be an integer")
		}
		q.Width = width
	}

	return validate.Struct(q)
}
