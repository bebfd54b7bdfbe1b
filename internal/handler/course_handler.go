package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/HK9750/LMS-BACKEND/internal/middleware"
	"github.com/HK9750/LMS-BACKEND/internal/model"
	"github.com/HK9750/LMS-BACKEND/internal/service"
)

// CourseHandler handles course catalog and nested mutation endpoints.
type CourseHandler struct {
	courseService service.CourseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// CourseRequest represents the editable course fields.
type CourseRequest struct {
	Name           string              `json:"name" validate:"required"`
	Description    string              `json:"description" validate:"required"`
	Price          string              `json:"price" validate:"required"`
	EstimatedPrice string              `json:"estimated_price"`
	Tags           string              `json:"tags" validate:"required"`
	Level          string              `json:"level" validate:"required"`
	DemoURL        string              `json:"demo_url"`
	Benefits       []model.Titled      `json:"benefits"`
	Prerequisites  []model.Titled      `json:"prerequisites"`
	Content        []model.ContentItem `json:"content"`
}

// QuestionRequest represents a new question on a content item.
type QuestionRequest struct {
	CourseID  string `json:"course_id" validate:"required,uuid"`
	ContentID string `json:"content_id" validate:"required,uuid"`
	Question  string `json:"question" validate:"required"`
}

// AnswerRequest represents a reply to a question.
type AnswerRequest struct {
	ContentID  string `json:"content_id" validate:"required,uuid"`
	QuestionID string `json:"question_id" validate:"required,uuid"`
	Answer     string `json:"answer" validate:"required"`
}

// ReviewRequest represents a new review on a purchased course.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// ReviewReplyRequest represents a staff reply to a review.
type ReviewReplyRequest struct {
	ReviewID string `json:"review_id" validate:"required,uuid"`
	Reply    string `json:"reply" validate:"required"`
}

func (r CourseRequest) toInput() (service.CourseInput, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return service.CourseInput{}, err
	}
	estimated := decimal.Zero
	if r.EstimatedPrice != "" {
		estimated, err = decimal.NewFromString(r.EstimatedPrice)
		if err != nil {
			return service.CourseInput{}, err
		}
	}
	return service.CourseInput{
		Name:           r.Name,
		Description:    r.Description,
		Price:          price,
		EstimatedPrice: estimated,
		Tags:           r.Tags,
		Level:          r.Level,
		DemoURL:        r.DemoURL,
		Benefits:       r.Benefits,
		Prerequisites:  r.Prerequisites,
		Content:        r.Content,
	}, nil
}

// Create godoc
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Param request body CourseRequest true "Course data"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Router /course/create [post]
func (h *CourseHandler) Create(c echo.Context) error {
	var req CourseRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}
	input, err := req.toInput()
	if err != nil {
		return invalidInput(c, "invalid price")
	}

	course, err := h.courseService.Create(c.Request().Context(), input)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"course":  course,
	})
}

// Update godoc
// @Summary Edit a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body CourseRequest true "Course data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /course/edit/{id} [put]
func (h *CourseHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidInput(c, "invalid course id")
	}
	var req CourseRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}
	input, err := req.toInput()
	if err != nil {
		return invalidInput(c, "invalid price")
	}

	course, err := h.courseService.Update(c.Request().Context(), id, input)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"course":  course,
	})
}

// GetByID godoc
// @Summary Get a single course (public projection)
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /course/{id} [get]
func (h *CourseHandler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidInput(c, "invalid course id")
	}
	course, err := h.courseService.GetByID(c.Request().Context(), id)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"course":  course,
	})
}

// List godoc
// @Summary List all courses (public projection)
// @Tags courses
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	courses, err := h.courseService.List(c.Request().Context())
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"courses": courses,
	})
}

// ListAdmin godoc
// @Summary List all courses with full documents
// @Tags courses
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Router /courses/admin [get]
func (h *CourseHandler) ListAdmin(c echo.Context) error {
	courses, err := h.courseService.ListAdmin(c.Request().Context())
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"courses": courses,
	})
}

// Search godoc
// @Summary Search courses by name
// @Tags courses
// @Produce json
// @Param name query string true "Name fragment"
// @Success 200 {object} map[string]interface{}
// @Router /courses/search/name [get]
func (h *CourseHandler) Search(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return invalidInput(c, "name query parameter is required")
	}
	courses, err := h.courseService.Search(c.Request().Context(), name)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"courses": courses,
	})
}

// TopReviews godoc
// @Summary List the highest rated courses
// @Tags courses
// @Produce json
// @Param limit query int false "Max courses returned"
// @Success 200 {object} map[string]interface{}
// @Router /courses/reviews [get]
func (h *CourseHandler) TopReviews(c echo.Context) error {
	limit := 5
	if v := c.QueryParam("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	courses, err := h.courseService.TopReviews(c.Request().Context(), limit)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"courses": courses,
	})
}

// Content godoc
// @Summary Get full content of a purchased course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/user/{id} [get]
func (h *CourseHandler) Content(c echo.Context) error {
	user := middleware.CurrentUser(c)
	content, err := h.courseService.GetCourseContent(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"content": content,
	})
}

// Delete godoc
// @Summary Delete a course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /course/delete/{id} [delete]
func (h *CourseHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidInput(c, "invalid course id")
	}
	if err := h.courseService.Delete(c.Request().Context(), id); err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "course deleted successfully",
	})
}

// AddQuestion godoc
// @Summary Ask a question on a content item
// @Tags courses
// @Accept json
// @Produce json
// @Param request body QuestionRequest true "Question data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /course/question [put]
func (h *CourseHandler) AddQuestion(c echo.Context) error {
	var req QuestionRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return invalidInput(c, "invalid course id")
	}
	contentID, err := uuid.Parse(req.ContentID)
	if err != nil {
		return invalidInput(c, "invalid content id")
	}

	user := middleware.CurrentUser(c)
	course, err := h.courseService.AddQuestion(c.Request().Context(), user, courseID, contentID, req.Question)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"course":  course,
	})
}

// AddAnswer godoc
// @Summary Answer a question on a content item
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body AnswerRequest true "Answer data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /course/answer/{id} [put]
func (h *CourseHandler) AddAnswer(c echo.Context) error {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidInput(c, "invalid course id")
	}
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}
	contentID, err := uuid.Parse(req.ContentID)
	if err != nil {
		return invalidInput(c, "invalid content id")
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		return invalidInput(c, "invalid question id")
	}

	user := middleware.CurrentUser(c)
	course, err := h.courseService.AddAnswer(c.Request().Context(), user, courseID, contentID, questionID, req.Answer)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"course":  course,
	})
}

// AddReview godoc
// @Summary Review a purchased course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body ReviewRequest true "Review data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /course/review/{id} [put]
func (h *CourseHandler) AddReview(c echo.Context) error {
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}

	// The course id stays a raw string: enrollment is checked before the id
	// format is ever validated.
	user := middleware.CurrentUser(c)
	course, err := h.courseService.AddReview(c.Request().Context(), user, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"course":  course,
	})
}

// ReplyToReview godoc
// @Summary Reply to a review
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body ReviewReplyRequest true "Reply data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /course/review/reply/{id} [put]
func (h *CourseHandler) ReplyToReview(c echo.Context) error {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidInput(c, "invalid course id")
	}
	var req ReviewReplyRequest
	if err := c.Bind(&req); err != nil {
		return invalidInput(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalidInput(c, err.Error())
	}
	reviewID, err := uuid.Parse(req.ReviewID)
	if err != nil {
		return invalidInput(c, "invalid review id")
	}

	user := middleware.CurrentUser(c)
	course, err := h.courseService.ReplyToReview(c.Request().Context(), user, courseID, reviewID, req.Reply)
	if err != nil {
		return mapped(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"course":  course,
	})
}
