package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/francovalli123/StudyO/internal/model"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	order []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	m.users[user.UserID] = user
	m.order = append(m.order, user.UserID)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) ListActive(_ context.Context, offset, limit int) ([]model.User, error) {
	var active []model.User
	for _, id := range m.order {
		if m.users[id].IsActive {
			active = append(active, *m.users[id])
		}
	}
	if offset >= len(active) {
		return nil, nil
	}
	end := offset + limit
	if end > len(active) {
		end = len(active)
	}
	return active[offset:end], nil
}

// ── Mock PasswordResetRepository ──

type mockPasswordResetRepo struct {
	resets map[string]*model.PasswordReset
	seq    int
}

func newMockPasswordResetRepo() *mockPasswordResetRepo {
	return &mockPasswordResetRepo{resets: make(map[string]*model.PasswordReset)}
}

func (m *mockPasswordResetRepo) Create(_ context.Context, reset *model.PasswordReset) error {
	if reset.ResetID == "" {
		m.seq++
		reset.ResetID = fmt.Sprintf("reset-%d", m.seq)
	}
	m.resets[reset.ResetID] = reset
	return nil
}

func (m *mockPasswordResetRepo) GetValidByTokenHash(_ context.Context, tokenHash string, now time.Time) (*model.PasswordReset, error) {
	for _, r := range m.resets {
		if r.TokenHash == tokenHash && r.UsedAt == nil && r.ExpiresAt.After(now) {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPasswordResetRepo) MarkUsed(_ context.Context, resetID string, usedAt time.Time) error {
	if r, ok := m.resets[resetID]; ok {
		r.UsedAt = &usedAt
	}
	return nil
}

func (m *mockPasswordResetRepo) InvalidateForUser(_ context.Context, userID string, usedAt time.Time) error {
	for _, r := range m.resets {
		if r.UserID == userID && r.UsedAt == nil {
			t := usedAt
			r.UsedAt = &t
		}
	}
	return nil
}

// ── Mock ChallengeRepository ──

type mockChallengeRepo struct {
	challenges map[string]*model.WeeklyChallenge
	seq        int

	// duplicateOnCreate 模拟并发创建冲突：Create 先插入 raceWinner 再返回唯一约束错误
	duplicateOnCreate bool
	raceWinner        *model.WeeklyChallenge
}

func newMockChallengeRepo() *mockChallengeRepo {
	return &mockChallengeRepo{challenges: make(map[string]*model.WeeklyChallenge)}
}

func (m *mockChallengeRepo) Create(_ context.Context, challenge *model.WeeklyChallenge) error {
	if m.duplicateOnCreate {
		m.duplicateOnCreate = false
		if m.raceWinner != nil {
			m.challenges[m.raceWinner.ChallengeID] = m.raceWinner
		}
		return gorm.ErrDuplicatedKey
	}
	for _, c := range m.challenges {
		if c.UserID == challenge.UserID && c.WeekStart.Equal(challenge.WeekStart) {
			return gorm.ErrDuplicatedKey
		}
	}
	if challenge.ChallengeID == "" {
		m.seq++
		challenge.ChallengeID = fmt.Sprintf("challenge-%d", m.seq)
	}
	m.challenges[challenge.ChallengeID] = challenge
	return nil
}

func (m *mockChallengeRepo) GetForWeek(_ context.Context, userID string, weekStart time.Time) (*model.WeeklyChallenge, error) {
	for _, c := range m.challenges {
		if c.UserID == userID && c.WeekStart.Equal(weekStart) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChallengeRepo) UpdateFields(_ context.Context, challengeID string, fields map[string]interface{}) error {
	c, ok := m.challenges[challengeID]
	if !ok || c.Status != model.ChallengeStatusActive {
		return nil // 终态守卫：不更新任何行
	}
	if v, ok := fields["current_value"]; ok {
		c.CurrentValue = v.(float64)
	}
	if v, ok := fields["status"]; ok {
		c.Status = v.(model.WeeklyChallengeStatus)
	}
	if v, ok := fields["completed_at"]; ok {
		t := v.(time.Time)
		c.CompletedAt = &t
	}
	return nil
}

func (m *mockChallengeRepo) ExpireActiveBefore(_ context.Context, userID string, cutoff time.Time) (int64, error) {
	var n int64
	for _, c := range m.challenges {
		if c.UserID == userID && c.Status == model.ChallengeStatusActive && c.WeekStart.Before(cutoff) {
			c.Status = model.ChallengeStatusFailed
			n++
		}
	}
	return n, nil
}

func (m *mockChallengeRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.WeeklyChallenge, int64, error) {
	var result []model.WeeklyChallenge
	for _, c := range m.challenges {
		if c.UserID == userID {
			result = append(result, *c)
		}
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

// ── Mock PomodoroRepository ──

type mockPomodoroRepo struct {
	sessions []*model.PomodoroSession
	seq      int
}

func newMockPomodoroRepo() *mockPomodoroRepo {
	return &mockPomodoroRepo{}
}

func (m *mockPomodoroRepo) Create(_ context.Context, session *model.PomodoroSession) error {
	for _, s := range m.sessions {
		if s.UserID == session.UserID &&
			s.StartTime.Equal(session.StartTime) &&
			s.EndTime.Equal(session.EndTime) &&
			s.DurationMinutes == session.DurationMinutes {
			return gorm.ErrDuplicatedKey
		}
	}
	if session.SessionID == "" {
		m.seq++
		session.SessionID = fmt.Sprintf("session-%d", m.seq)
	}
	m.sessions = append(m.sessions, session)
	return nil
}

func (m *mockPomodoroRepo) GetByID(_ context.Context, userID, sessionID string) (*model.PomodoroSession, error) {
	for _, s := range m.sessions {
		if s.SessionID == sessionID && s.UserID == userID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPomodoroRepo) ListInWindow(_ context.Context, userID string, fromUTC, toUTC time.Time) ([]model.PomodoroSession, error) {
	var result []model.PomodoroSession
	for _, s := range m.sessions {
		if s.UserID != userID {
			continue
		}
		if s.StartTime.Before(fromUTC) || s.StartTime.After(toUTC) {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockPomodoroRepo) List(_ context.Context, userID string, fromUTC, toUTC *time.Time, offset, limit int) ([]model.PomodoroSession, int64, error) {
	var result []model.PomodoroSession
	for _, s := range m.sessions {
		if s.UserID != userID {
			continue
		}
		if fromUTC != nil && s.StartTime.Before(*fromUTC) {
			continue
		}
		if toUTC != nil && s.StartTime.After(*toUTC) {
			continue
		}
		result = append(result, *s)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockPomodoroRepo) Delete(_ context.Context, userID, sessionID string) error {
	for i, s := range m.sessions {
		if s.SessionID == sessionID && s.UserID == userID {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
	seq      int
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject)}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	if subject.SubjectID == "" {
		m.seq++
		subject.SubjectID = fmt.Sprintf("subject-%d", m.seq)
	}
	m.subjects[subject.SubjectID] = subject
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, userID, subjectID string) (*model.Subject, error) {
	if s, ok := m.subjects[subjectID]; ok && s.UserID == userID {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) ListByUser(_ context.Context, userID string) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.subjects {
		if s.UserID == userID && s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	m.subjects[subject.SubjectID] = subject
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, userID, subjectID string) error {
	if s, ok := m.subjects[subjectID]; ok && s.UserID == userID {
		delete(m.subjects, subjectID)
	}
	return nil
}

// ── Mock ObjectiveRepository ──

type mockObjectiveRepo struct {
	objectives map[string]*model.WeeklyObjective
	order      []string
	seq        int

	archiveErr error // 注入事务内归档失败
}

func newMockObjectiveRepo() *mockObjectiveRepo {
	return &mockObjectiveRepo{objectives: make(map[string]*model.WeeklyObjective)}
}

func (m *mockObjectiveRepo) Create(_ context.Context, objective *model.WeeklyObjective) error {
	if objective.ObjectiveID == "" {
		m.seq++
		objective.ObjectiveID = fmt.Sprintf("objective-%d", m.seq)
	}
	m.objectives[objective.ObjectiveID] = objective
	m.order = append(m.order, objective.ObjectiveID)
	return nil
}

func (m *mockObjectiveRepo) GetByID(_ context.Context, userID, objectiveID string) (*model.WeeklyObjective, error) {
	if o, ok := m.objectives[objectiveID]; ok && o.UserID == userID {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockObjectiveRepo) ListActive(_ context.Context, userID string) ([]model.WeeklyObjective, error) {
	var result []model.WeeklyObjective
	for _, id := range m.order {
		o := m.objectives[id]
		if o.UserID == userID && o.IsActive {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockObjectiveRepo) CountActiveIncomplete(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, o := range m.objectives {
		if o.UserID == userID && o.IsActive && !o.IsCompleted {
			count++
		}
	}
	return count, nil
}

func (m *mockObjectiveRepo) CountActive(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, o := range m.objectives {
		if o.UserID == userID && o.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *mockObjectiveRepo) Update(_ context.Context, objective *model.WeeklyObjective) error {
	m.objectives[objective.ObjectiveID] = objective
	return nil
}

func (m *mockObjectiveRepo) Delete(_ context.Context, userID, objectiveID string) error {
	if o, ok := m.objectives[objectiveID]; ok && o.UserID == userID {
		delete(m.objectives, objectiveID)
	}
	return nil
}

func (m *mockObjectiveRepo) ArchiveActive(_ context.Context, userID string, archivedAt time.Time) (int64, error) {
	if m.archiveErr != nil {
		return 0, m.archiveErr
	}
	var n int64
	for _, o := range m.objectives {
		if o.UserID == userID && o.IsActive {
			o.IsActive = false
			t := archivedAt
			o.ArchivedAt = &t
			n++
		}
	}
	return n, nil
}

// ── Mock ObjectiveHistoryRepository ──

type mockObjectiveHistoryRepo struct {
	histories []model.WeeklyObjectiveHistory
}

func newMockObjectiveHistoryRepo() *mockObjectiveHistoryRepo {
	return &mockObjectiveHistoryRepo{}
}

func (m *mockObjectiveHistoryRepo) BulkCreate(_ context.Context, histories []model.WeeklyObjectiveHistory) error {
	m.histories = append(m.histories, histories...)
	return nil
}

func (m *mockObjectiveHistoryRepo) LatestForUser(_ context.Context, userID string) (*model.WeeklyObjectiveHistory, error) {
	var latest *model.WeeklyObjectiveHistory
	for i := range m.histories {
		h := &m.histories[i]
		if h.UserID != userID {
			continue
		}
		if latest == nil || h.WeekStartDate.After(latest.WeekStartDate) {
			latest = h
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockObjectiveHistoryRepo) ExistsForWeek(_ context.Context, userID string, weekStart, weekEnd time.Time) (bool, error) {
	for i := range m.histories {
		h := &m.histories[i]
		if h.UserID == userID && h.WeekStartDate.Equal(weekStart) && h.WeekEndDate.Equal(weekEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockObjectiveHistoryRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.WeeklyObjectiveHistory, int64, error) {
	var result []model.WeeklyObjectiveHistory
	for i := range m.histories {
		if m.histories[i].UserID == userID {
			result = append(result, m.histories[i])
		}
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

// ── Mock HabitRepository ──

type mockHabitRepo struct {
	habits map[string]*model.Habit
	order  []string
	seq    int
}

func newMockHabitRepo() *mockHabitRepo {
	return &mockHabitRepo{habits: make(map[string]*model.Habit)}
}

func (m *mockHabitRepo) Create(_ context.Context, habit *model.Habit) error {
	if habit.HabitID == "" {
		m.seq++
		habit.HabitID = fmt.Sprintf("habit-%d", m.seq)
	}
	m.habits[habit.HabitID] = habit
	m.order = append(m.order, habit.HabitID)
	return nil
}

func (m *mockHabitRepo) GetByID(_ context.Context, userID, habitID string) (*model.Habit, error) {
	if h, ok := m.habits[habitID]; ok && h.UserID == userID {
		return h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHabitRepo) ListByUser(_ context.Context, userID string) ([]model.Habit, error) {
	var result []model.Habit
	for _, id := range m.order {
		h := m.habits[id]
		if h.UserID == userID && h.IsActive {
			result = append(result, *h)
		}
	}
	return result, nil
}

func (m *mockHabitRepo) ListKey(_ context.Context, userID string) ([]model.Habit, error) {
	var result []model.Habit
	for _, id := range m.order {
		h := m.habits[id]
		if h.UserID == userID && h.IsActive && h.IsKey {
			result = append(result, *h)
		}
	}
	return result, nil
}

func (m *mockHabitRepo) Update(_ context.Context, habit *model.Habit) error {
	m.habits[habit.HabitID] = habit
	return nil
}

func (m *mockHabitRepo) Delete(_ context.Context, userID, habitID string) error {
	if h, ok := m.habits[habitID]; ok && h.UserID == userID {
		delete(m.habits, habitID)
	}
	return nil
}

// ── Mock HabitRecordRepository ──

type mockHabitRecordRepo struct {
	records []*model.HabitRecord
	seq     int
}

func newMockHabitRecordRepo() *mockHabitRecordRepo {
	return &mockHabitRecordRepo{}
}

func (m *mockHabitRecordRepo) Create(_ context.Context, record *model.HabitRecord) error {
	for _, r := range m.records {
		if r.HabitID == record.HabitID && r.RecordDate.Equal(record.RecordDate) {
			return gorm.ErrDuplicatedKey
		}
	}
	if record.RecordID == "" {
		m.seq++
		record.RecordID = fmt.Sprintf("record-%d", m.seq)
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockHabitRecordRepo) CompletedOn(_ context.Context, habitID string, date time.Time) (bool, error) {
	for _, r := range m.records {
		if r.HabitID == habitID && r.RecordDate.Equal(date) && r.Completed {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockHabitRecordRepo) CompletedSetOn(_ context.Context, habitIDs []string, date time.Time) (map[string]bool, error) {
	done := make(map[string]bool, len(habitIDs))
	for _, r := range m.records {
		if !r.RecordDate.Equal(date) || !r.Completed {
			continue
		}
		for _, id := range habitIDs {
			if r.HabitID == id {
				done[id] = true
			}
		}
	}
	return done, nil
}

func (m *mockHabitRecordRepo) ListByHabit(_ context.Context, habitID string, from, to time.Time) ([]model.HabitRecord, error) {
	var result []model.HabitRecord
	for _, r := range m.records {
		if r.HabitID == habitID && !r.RecordDate.Before(from) && !r.RecordDate.After(to) {
			result = append(result, *r)
		}
	}
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []*model.Notification
	seq           int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	if notification.NotificationID == "" {
		m.seq++
		notification.NotificationID = fmt.Sprintf("notify-%d", m.seq)
	}
	m.notifications = append(m.notifications, notification)
	return nil
}

func (m *mockNotificationRepo) ExistsRecent(_ context.Context, userID string, typ model.NotificationType, since time.Time) (bool, error) {
	for _, n := range m.notifications {
		if n.UserID == userID && n.Type == typ && n.Status == model.NotificationStatusSent && !n.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, *n)
		}
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

// ── Fake Mailer ──

type sentMail struct {
	to      string
	subject string
}

type fakeMailer struct {
	sent    []sentMail
	sendErr error // 注入投递失败
}

func (f *fakeMailer) Send(to, subject, _ string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject})
	return nil
}
