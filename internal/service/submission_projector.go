package service

import (
	"context"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"time"
)

type PersonRef struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CareerRef struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProjectRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SubmissionView 对外输出的提交视图，可空字段输出为 null 而不是省略
// swagger:model SubmissionView
type SubmissionView struct {
	ID      string     `json:"id"`
	Learner PersonRef  `json:"learner"`
	Career  *CareerRef `json:"career"`
	Project ProjectRef `json:"project"`
	Mentor  *PersonRef `json:"mentor"`

	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	SubmissionURL    string                 `json:"submissionUrl"`
	FileURL          string                 `json:"fileUrl"`
	Attachments      []string               `json:"attachments"`
	TimeSpentMinutes int                    `json:"timeSpentMinutes"`
	Difficulty       model.Difficulty       `json:"difficulty"`
	Status           model.SubmissionStatus `json:"status"`
	Feedback         string                 `json:"feedback"`
	Score            *float64               `json:"score"`
	ReviewNotes      string                 `json:"reviewNotes"`
	ReviewedAt       *time.Time             `json:"reviewedAt"`
	SubmittedAt      time.Time              `json:"submittedAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// Projector 批量解析关联的学员、导师、职业方向和项目
type Projector struct {
	Users    UserDirectory
	Careers  CareerLookup
	Projects ProjectLookup
}

func NewProjector(users UserDirectory, careers CareerLookup, projects ProjectLookup) *Projector {
	return &Projector{Users: users, Careers: careers, Projects: projects}
}

func (p *Projector) Project(ctx context.Context, submissions []model.Submission) ([]SubmissionView, error) {
	views := make([]SubmissionView, 0, len(submissions))
	if len(submissions) == 0 {
		return views, nil
	}

	userSet := make(map[uint]struct{})
	careerSet := make(map[uint]struct{})
	projectSet := make(map[string]struct{})
	for _, s := range submissions {
		userSet[s.LearnerID] = struct{}{}
		if s.MentorID != nil {
			userSet[*s.MentorID] = struct{}{}
		}
		if s.CareerID != nil {
			careerSet[*s.CareerID] = struct{}{}
		}
		if s.ProjectID != nil && *s.ProjectID != "" {
			projectSet[*s.ProjectID] = struct{}{}
		}
	}

	users, err := p.Users.FindByIDs(ctx, uintKeys(userSet))
	if err != nil {
		return nil, err
	}
	careers, err := p.Careers.FindByIDs(ctx, uintKeys(careerSet))
	if err != nil {
		return nil, err
	}
	projectIDs := make([]string, 0, len(projectSet))
	for id := range projectSet {
		projectIDs = append(projectIDs, id)
	}
	var projects map[string]model.Project
	if p.Projects != nil {
		if projects, err = p.Projects.FindByIDs(ctx, projectIDs); err != nil {
			return nil, err
		}
	}

	for _, s := range submissions {
		views = append(views, buildView(s, users, careers, projects))
	}
	return views, nil
}

// ProjectOne 单条投影
func (p *Projector) ProjectOne(ctx context.Context, submission *model.Submission) (*SubmissionView, error) {
	views, err := p.Project(ctx, []model.Submission{*submission})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func buildView(s model.Submission, users map[uint]model.User, careers map[uint]model.Career, projects map[string]model.Project) SubmissionView {
	view := SubmissionView{
		ID:               s.ID,
		Learner:          PersonRef{ID: s.LearnerID},
		Project:          ProjectRef{ID: util.UnassignedProjectID},
		Title:            s.Title,
		Description:      s.Description,
		SubmissionURL:    s.SubmissionURL,
		FileURL:          s.FileURL,
		Attachments:      []string(s.Attachments),
		TimeSpentMinutes: s.TimeSpentMinutes,
		Difficulty:       s.Difficulty,
		Status:           s.Status,
		Feedback:         s.Feedback,
		Score:            s.Score,
		ReviewNotes:      s.ReviewNotes,
		ReviewedAt:       s.ReviewedAt,
		SubmittedAt:      s.SubmittedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if view.Attachments == nil {
		view.Attachments = []string{}
	}

	if learner, ok := users[s.LearnerID]; ok {
		view.Learner.Name = learner.Name
		view.Learner.Email = learner.Email
	}
	if s.MentorID != nil {
		mentor := PersonRef{ID: *s.MentorID}
		if u, ok := users[*s.MentorID]; ok {
			mentor.Name = u.Name
			mentor.Email = u.Email
		}
		view.Mentor = &mentor
	}
	if s.CareerID != nil {
		if c, ok := careers[*s.CareerID]; ok {
			view.Career = &CareerRef{ID: c.ID, Name: c.Name, Description: c.Description}
		}
	}
	if s.ProjectID != nil && *s.ProjectID != "" {
		view.Project.ID = *s.ProjectID
		if project, ok := projects[*s.ProjectID]; ok {
			view.Project.Title = project.Title
		}
	}
	// 项目标题缺失时沿用提交标题
	if view.Project.Title == "" {
		view.Project.Title = s.Title
	}
	return view
}

func uintKeys(set map[uint]struct{}) []uint {
	keys := make([]uint, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}
