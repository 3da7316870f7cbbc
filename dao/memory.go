package dao

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-agrisense/models"
)

// Memory 内存存储，用于本地开发与测试，不落盘
type Memory struct {
	Users       *MemoryUsers
	Profiles    *MemoryProfiles
	Predictions *MemoryPredictions
	Detections  *MemoryDetections
}

// NewMemory 创建空的内存存储
func NewMemory() *Memory {
	users := &MemoryUsers{byID: map[int]models.User{}}
	return &Memory{
		Users:       users,
		Profiles:    &MemoryProfiles{users: users, byUser: map[int]models.FarmerProfile{}},
		Predictions: &MemoryPredictions{},
		Detections:  &MemoryDetections{},
	}
}

// MemoryUsers 内存用户表
type MemoryUsers struct {
	mu     sync.RWMutex
	nextID int
	byID   map[int]models.User
}

// Create 插入用户
func (m *MemoryUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.byID[u.ID] = *u
	return nil
}

// ByUsername 按用户名查询
func (m *MemoryUsers) ByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// ByID 按 ID 查询
func (m *MemoryUsers) ByID(_ context.Context, id int) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// List 按 ID 升序返回全部用户
func (m *MemoryUsers) List(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// SetRole 修改用户角色
func (m *MemoryUsers) SetRole(id, role int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	m.byID[id] = u
	return nil
}

// MemoryProfiles 内存档案表
type MemoryProfiles struct {
	mu     sync.RWMutex
	users  *MemoryUsers
	nextID int
	byUser map[int]models.FarmerProfile
}

func (m *MemoryProfiles) withUser(ctx context.Context, p models.FarmerProfile) (*models.FarmerProfile, error) {
	u, err := m.users.ByID(ctx, p.User.ID)
	if err != nil {
		return nil, err
	}
	p.User = *u
	return &p, nil
}

// ByUser 查询用户的档案
func (m *MemoryProfiles) ByUser(ctx context.Context, userID int) (*models.FarmerProfile, error) {
	m.mu.RLock()
	p, ok := m.byUser[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.withUser(ctx, p)
}

// List 返回全部档案
func (m *MemoryProfiles) List(ctx context.Context) ([]models.FarmerProfile, error) {
	m.mu.RLock()
	raw := make([]models.FarmerProfile, 0, len(m.byUser))
	for _, p := range m.byUser {
		raw = append(raw, p)
	}
	m.mu.RUnlock()

	sort.Slice(raw, func(i, j int) bool { return raw[i].ID < raw[j].ID })
	profiles := make([]models.FarmerProfile, 0, len(raw))
	for _, p := range raw {
		full, err := m.withUser(ctx, p)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *full)
	}
	return profiles, nil
}

// Upsert 创建或更新档案
func (m *MemoryProfiles) Upsert(ctx context.Context, userID int, req models.ProfileRequest) (*models.FarmerProfile, error) {
	m.mu.Lock()
	now := time.Now()
	p, ok := m.byUser[userID]
	if !ok {
		m.nextID++
		p = models.FarmerProfile{ID: m.nextID, CreatedAt: now}
		p.User.ID = userID
	}
	p.Location = req.Location
	p.FarmSize = req.FarmSize
	p.UpdatedAt = now
	m.byUser[userID] = p
	m.mu.Unlock()
	return m.withUser(ctx, p)
}

// MemoryPredictions 内存预测记录
type MemoryPredictions struct {
	mu      sync.RWMutex
	nextID  int64
	records []models.CropPrediction
}

// Create 保存预测
func (m *MemoryPredictions) Create(_ context.Context, p *models.CropPrediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	m.records = append(m.records, *p)
	return nil
}

// ListByUser 倒序返回用户的预测
func (m *MemoryPredictions) ListByUser(_ context.Context, userID int) ([]models.CropPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.CropPrediction{}
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

// Page 与 PredictionDAO.Page 相同的筛选与分页
func (m *MemoryPredictions) Page(ctx context.Context, userID int, filter models.PredictionFilter) (*models.PredictionPage, error) {
	filter = filter.Normalize()
	all, _ := m.ListByUser(ctx, userID)

	matched := []models.CropPrediction{}
	for _, p := range all {
		if filter.HasDateRange() && (p.CreatedAt.Before(filter.StartDate) || p.CreatedAt.After(filter.EndDate)) {
			continue
		}
		if filter.Crop != "" && !strings.Contains(strings.ToLower(p.PredictedCrop), strings.ToLower(filter.Crop)) {
			continue
		}
		matched = append(matched, p)
	}

	page := &models.PredictionPage{
		Data:        []models.CropPrediction{},
		TotalCount:  len(matched),
		CurrentPage: filter.Page,
		PageSize:    filter.PageSize,
	}
	if start := filter.Offset(); start < len(matched) {
		end := min(start+filter.PageSize, len(matched))
		page.Data = append(page.Data, matched[start:end]...)
	}
	return page, nil
}

// ByID 获取用户自己的一条预测
func (m *MemoryPredictions) ByID(_ context.Context, userID int, id int64) (*models.CropPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.records {
		if p.ID == id && p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// MemoryDetections 内存病害识别记录
type MemoryDetections struct {
	mu      sync.RWMutex
	nextID  int64
	records []models.DiseaseDetection
}

// Add 追加识别记录
func (m *MemoryDetections) Add(d models.DiseaseDetection) models.DiseaseDetection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	d.ID = m.nextID
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	m.records = append(m.records, d)
	return d
}

// Create 与 DetectionDAO.Create 相同，回填 ID
func (m *MemoryDetections) Create(_ context.Context, d *models.DiseaseDetection) error {
	*d = m.Add(*d)
	return nil
}

// ListByUser 倒序返回用户的识别记录
func (m *MemoryDetections) ListByUser(_ context.Context, userID int) ([]models.DiseaseDetection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.DiseaseDetection{}
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}
