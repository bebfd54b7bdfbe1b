package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/HK9750/LMS-BACKEND/internal/cache"
	"github.com/HK9750/LMS-BACKEND/internal/errors"
	"github.com/HK9750/LMS-BACKEND/internal/model"
	"github.com/HK9750/LMS-BACKEND/internal/queue"
	"github.com/HK9750/LMS-BACKEND/internal/repository"
)

const (
	courseCacheTTL     = 30 * time.Minute
	courseListCacheKey = "courses"
)

// CourseInput carries the author-editable course fields. Reviews, ratings and
// the purchase counter never come from input.
type CourseInput struct {
	Name           string
	Description    string
	Price          decimal.Decimal
	EstimatedPrice decimal.Decimal
	Tags           string
	Level          string
	DemoURL        string
	Benefits       []model.Titled
	Prerequisites  []model.Titled
	Content        []model.ContentItem
}

// CourseService owns the course aggregate: CRUD, the nested question/answer/
// review/reply mutations and the derived rating. All nested-array mutations
// run read-modify-write under a row lock so concurrent appends to the same
// course cannot lose updates.
type CourseService interface {
	Create(ctx context.Context, input CourseInput) (*model.Course, error)
	Update(ctx context.Context, id uuid.UUID, input CourseInput) (*model.Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	ListAdmin(ctx context.Context) ([]model.Course, error)
	Search(ctx context.Context, name string) ([]model.Course, error)
	TopReviews(ctx context.Context, limit int) ([]model.Course, error)
	GetCourseContent(ctx context.Context, user *model.User, courseID string) ([]model.ContentItem, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddQuestion(ctx context.Context, user *model.User, courseID, contentID uuid.UUID, text string) (*model.Course, error)
	AddAnswer(ctx context.Context, user *model.User, courseID, contentID, questionID uuid.UUID, text string) (*model.Course, error)
	AddReview(ctx context.Context, user *model.User, courseID string, rating int, comment string) (*model.Course, error)
	ReplyToReview(ctx context.Context, user *model.User, courseID, reviewID uuid.UUID, text string) (*model.Course, error)
}

type courseService struct {
	courses       repository.CourseRepository
	notifications repository.NotificationRepository
	cache         *cache.Client
	publisher     queue.Publisher
}

// NewCourseService creates a new course service.
func NewCourseService(
	courses repository.CourseRepository,
	notifications repository.NotificationRepository,
	cache *cache.Client,
	publisher queue.Publisher,
) CourseService {
	return &courseService{
		courses:       courses,
		notifications: notifications,
		cache:         cache,
		publisher:     publisher,
	}
}

func courseCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("course:%s", id.String())
}

// invalidate deletes cache keys after a write. The cache is never re-populated
// from the mutated in-memory object; the next read refills from the store.
func (s *courseService) invalidate(ctx context.Context, keys ...string) {
	_ = s.cache.Delete(ctx, keys...)
}

// notify writes the durable notification record and publishes the sink event.
// Both are best-effort: the primary mutation is already committed.
func (s *courseService) notify(ctx context.Context, record *model.Notification, event queue.Event) {
	if record != nil {
		if err := s.notifications.Create(ctx, record); err != nil {
			log.Printf("create notification record: %v", err)
		}
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish %s event: %v", event.Kind, err)
	}
}

func (s *courseService) contentWithIDs(items []model.ContentItem) []model.ContentItem {
	out := make([]model.ContentItem, len(items))
	for i, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if item.Questions == nil {
			item.Questions = []model.Question{}
		}
		out[i] = item
	}
	return out
}

// Create creates a new course and invalidates the listing cache.
func (s *courseService) Create(ctx context.Context, input CourseInput) (*model.Course, error) {
	course := &model.Course{
		Name:           input.Name,
		Description:    input.Description,
		Price:          input.Price,
		EstimatedPrice: input.EstimatedPrice,
		Tags:           input.Tags,
		Level:          input.Level,
		DemoURL:        input.DemoURL,
		Benefits:       input.Benefits,
		Prerequisites:  input.Prerequisites,
		Content:        s.contentWithIDs(input.Content),
		Reviews:        []model.Review{},
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.invalidate(ctx, courseListCacheKey)
	return course, nil
}

// Update overwrites the editable fields, leaving reviews, ratings and the
// purchase counter untouched.
func (s *courseService) Update(ctx context.Context, id uuid.UUID, input CourseInput) (*model.Course, error) {
	var updated *model.Course
	err := s.courses.WithTransaction(ctx, func(ctx context.Context, repo repository.CourseRepository) error {
		course, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCourseNotFound
			}
			return err
		}
		course.Name = input.Name
		course.Description = input.Description
		course.Price = input.Price
		course.EstimatedPrice = input.EstimatedPrice
		course.Tags = input.Tags
		course.Level = input.Level
		course.DemoURL = input.DemoURL
		course.Benefits = input.Benefits
		course.Prerequisites = input.Prerequisites
		course.Content = s.contentWithIDs(input.Content)
		if err := repo.Update(ctx, course); err != nil {
			return fmt.Errorf("update course: %w", err)
		}
		updated = course
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, courseCacheKey(id), courseListCacheKey)
	return updated, nil
}

// GetByID returns the public projection of a course, cache-aside.
func (s *courseService) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	key := courseCacheKey(id)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached model.Course
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, err
	}

	public := course.PublicView()
	if payload, err := json.Marshal(public); err == nil {
		_ = s.cache.Set(ctx, key, payload, courseCacheTTL)
	}
	return &public, nil
}

// List returns public projections of all courses, cache-aside.
func (s *courseService) List(ctx context.Context) ([]model.Course, error) {
	if data, _ := s.cache.Get(ctx, courseListCacheKey); data != nil {
		var cached []model.Course
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	courses, err := s.courses.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]model.Course, len(courses))
	for i, c := range courses {
		public[i] = c.PublicView()
	}
	if payload, err := json.Marshal(public); err == nil {
		_ = s.cache.Set(ctx, courseListCacheKey, payload, courseCacheTTL)
	}
	return public, nil
}

// ListAdmin returns full course documents, bypassing the cache.
func (s *courseService) ListAdmin(ctx context.Context) ([]model.Course, error) {
	return s.courses.FindAll(ctx)
}

// Search returns public projections of courses matching a name fragment.
func (s *courseService) Search(ctx context.Context, name string) ([]model.Course, error) {
	courses, err := s.courses.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	public := make([]model.Course, len(courses))
	for i, c := range courses {
		public[i] = c.PublicView()
	}
	return public, nil
}

// TopReviews returns the highest rated courses.
func (s *courseService) TopReviews(ctx context.Context, limit int) ([]model.Course, error) {
	courses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].Ratings > courses[j].Ratings
	})
	if limit > 0 && limit < len(courses) {
		courses = courses[:limit]
	}
	return courses, nil
}

// GetCourseContent returns the full content of a purchased course. The
// enrollment check runs against the user's enrollment list before the course
// id is even parsed, so non-purchasers learn nothing about id validity.
func (s *courseService) GetCourseContent(ctx context.Context, user *model.User, courseID string) ([]model.ContentItem, error) {
	var enrolled *model.Enrollment
	for i, e := range user.Courses {
		if e.CourseID.String() == courseID {
			enrolled = &user.Courses[i]
			break
		}
	}
	if enrolled == nil {
		return nil, errors.ErrCourseNotFound
	}
	course, err := s.courses.FindByID(ctx, enrolled.CourseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, err
	}
	return course.Content, nil
}

// Delete removes a course and evicts its cache entries.
func (s *courseService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.courses.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrCourseNotFound
		}
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	s.invalidate(ctx, courseCacheKey(id), courseListCacheKey)
	return nil
}

// AddQuestion appends a question to a content item's thread. Duplicate
// submissions are all stored.
func (s *courseService) AddQuestion(ctx context.Context, user *model.User, courseID, contentID uuid.UUID, text string) (*model.Course, error) {
	if text == "" {
		return nil, errors.ErrInvalidInput
	}
	var updated *model.Course
	err := s.courses.WithTransaction(ctx, func(ctx context.Context, repo repository.CourseRepository) error {
		course, err := repo.FindByIDForUpdate(ctx, courseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCourseNotFound
			}
			return err
		}
		item := course.ContentItemByID(contentID)
		if item == nil {
			return errors.ErrContentNotFound
		}
		item.Questions = append(item.Questions, model.Question{
			ID:        uuid.New(),
			Author:    model.AuthorOf(user),
			Text:      text,
			Replies:   []model.Reply{},
			CreatedAt: time.Now().UTC(),
		})
		if err := repo.Update(ctx, course); err != nil {
			return fmt.Errorf("persist course: %w", err)
		}
		updated = course
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, courseCacheKey(courseID), courseListCacheKey)
	s.notify(ctx,
		&model.Notification{
			UserID:  user.ID,
			Title:   "New Question Received",
			Message: fmt.Sprintf("%s asked a question in %s", user.Name, updated.Name),
		},
		queue.Event{
			Kind: queue.KindQuestionAsked,
			Data: map[string]string{"course": updated.Name, "user": user.Name},
		},
	)
	return updated, nil
}

// AddAnswer appends a reply to a question thread and notifies the question's
// author by email through the sink. The mutation is durable regardless of
// notification outcome.
func (s *courseService) AddAnswer(ctx context.Context, user *model.User, courseID, contentID, questionID uuid.UUID, text string) (*model.Course, error) {
	if text == "" {
		return nil, errors.ErrInvalidInput
	}
	var updated *model.Course
	var question model.Question
	var contentTitle string
	err := s.courses.WithTransaction(ctx, func(ctx context.Context, repo repository.CourseRepository) error {
		course, err := repo.FindByIDForUpdate(ctx, courseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCourseNotFound
			}
			return err
		}
		item := course.ContentItemByID(contentID)
		if item == nil {
			return errors.ErrContentNotFound
		}
		var target *model.Question
		for i := range item.Questions {
			if item.Questions[i].ID == questionID {
				target = &item.Questions[i]
				break
			}
		}
		if target == nil {
			return errors.ErrQuestionNotFound
		}
		target.Replies = append(target.Replies, model.Reply{
			ID:        uuid.New(),
			Author:    model.AuthorOf(user),
			Text:      text,
			CreatedAt: time.Now().UTC(),
		})
		if err := repo.Update(ctx, course); err != nil {
			return fmt.Errorf("persist course: %w", err)
		}
		updated = course
		question = *target
		contentTitle = item.Title
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, courseCacheKey(courseID))
	event := queue.Event{
		Kind: queue.KindQuestionAnswered,
		Data: map[string]string{"course": updated.Name, "user": user.Name},
	}
	if question.Author.ID != user.ID && question.Author.Email != "" {
		event.Recipient = question.Author.Email
		event.Subject = "Your question received a reply"
		event.Template = "question_answered.html"
		event.Data = map[string]string{
			"Name":         question.Author.Name,
			"CourseName":   updated.Name,
			"ContentTitle": contentTitle,
			"Reply":        text,
		}
	}
	s.notify(ctx,
		&model.Notification{
			UserID:  user.ID,
			Title:   "New Question Reply Received",
			Message: fmt.Sprintf("%s replied to a question in %s", user.Name, updated.Name),
		},
		event,
	)
	return updated, nil
}

// AddReview appends a review and recomputes the aggregate rating as the mean
// of all review ratings, inside the same locked transaction. Only enrolled
// purchasers may review; the enrollment check runs before the course id is
// parsed or looked up.
func (s *courseService) AddReview(ctx context.Context, user *model.User, courseID string, rating int, comment string) (*model.Course, error) {
	var enrolled *model.Enrollment
	for i, e := range user.Courses {
		if e.CourseID.String() == courseID {
			enrolled = &user.Courses[i]
			break
		}
	}
	if enrolled == nil {
		return nil, errors.ErrCourseNotFound
	}
	if rating < 1 || rating > 5 {
		return nil, errors.ErrInvalidRating
	}

	var updated *model.Course
	err := s.courses.WithTransaction(ctx, func(ctx context.Context, repo repository.CourseRepository) error {
		course, err := repo.FindByIDForUpdate(ctx, enrolled.CourseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCourseNotFound
			}
			return err
		}
		course.Reviews = append(course.Reviews, model.Review{
			ID:        uuid.New(),
			Author:    model.AuthorOf(user),
			Rating:    rating,
			Comment:   comment,
			Replies:   []model.Reply{},
			CreatedAt: time.Now().UTC(),
		})
		course.RecomputeRatings()
		if err := repo.Update(ctx, course); err != nil {
			return fmt.Errorf("persist course: %w", err)
		}
		updated = course
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Single-course key only; the listing stays stale until its TTL passes.
	s.invalidate(ctx, courseCacheKey(enrolled.CourseID))
	s.notify(ctx,
		&model.Notification{
			UserID:  user.ID,
			Title:   "New Review Received",
			Message: fmt.Sprintf("%s reviewed %s", user.Name, updated.Name),
		},
		queue.Event{
			Kind: queue.KindReviewAdded,
			Data: map[string]string{"course": updated.Name, "user": user.Name},
		},
	)
	return updated, nil
}

// ReplyToReview appends a staff reply to a review and emails the reviewer
// through the sink.
func (s *courseService) ReplyToReview(ctx context.Context, user *model.User, courseID, reviewID uuid.UUID, text string) (*model.Course, error) {
	if text == "" {
		return nil, errors.ErrInvalidInput
	}
	var updated *model.Course
	var review model.Review
	err := s.courses.WithTransaction(ctx, func(ctx context.Context, repo repository.CourseRepository) error {
		course, err := repo.FindByIDForUpdate(ctx, courseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCourseNotFound
			}
			return err
		}
		target := course.ReviewByID(reviewID)
		if target == nil {
			return errors.ErrReviewNotFound
		}
		target.Replies = append(target.Replies, model.Reply{
			ID:        uuid.New(),
			Author:    model.AuthorOf(user),
			Text:      text,
			CreatedAt: time.Now().UTC(),
		})
		if err := repo.Update(ctx, course); err != nil {
			return fmt.Errorf("persist course: %w", err)
		}
		updated = course
		review = *target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, courseCacheKey(courseID))
	event := queue.Event{
		Kind: queue.KindReviewReplied,
		Data: map[string]string{"course": updated.Name, "user": user.Name},
	}
	if review.Author.Email != "" {
		event.Recipient = review.Author.Email
		event.Subject = "Your review received a reply"
		event.Template = "review_reply.html"
		event.Data = map[string]string{
			"Name":       review.Author.Name,
			"CourseName": updated.Name,
			"Reply":      text,
		}
	}
	s.notify(ctx, nil, event)
	return updated, nil
}
