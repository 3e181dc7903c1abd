package services

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/taskman-io/apiserver/internal/events"
	"github.com/taskman-io/apiserver/internal/store"
	"github.com/taskman-io/apiserver/types"
)

// In-memory fakes mirroring the repository contracts: bare
// store.ErrNotFound for absent rows, store-assigned sequential ids.

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if r.err != nil {
		return types.User{}, r.err
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	if r.err != nil {
		return types.User{}, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if r.err != nil {
		return types.User{}, r.err
	}
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeTaskRepo struct {
	tasks  map[int]types.Task
	nextID int
	err    error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int]types.Task), nextID: 1}
}

func (r *fakeTaskRepo) Create(_ context.Context, task types.Task) (types.Task, error) {
	if r.err != nil {
		return types.Task{}, r.err
	}
	task.ID = r.nextID
	r.nextID++
	r.tasks[task.ID] = task
	return task, nil
}

func (r *fakeTaskRepo) ListForUser(_ context.Context, userID int) ([]types.Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	tasks := make([]types.Task, 0)
	for _, task := range r.tasks {
		if task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, taskID, userID int) (types.Task, error) {
	if r.err != nil {
		return types.Task{}, r.err
	}
	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (r *fakeTaskRepo) GetAny(_ context.Context, taskID int) (types.Task, error) {
	if r.err != nil {
		return types.Task{}, r.err
	}
	task, ok := r.tasks[taskID]
	if !ok {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task types.Task) (types.Task, error) {
	if r.err != nil {
		return types.Task{}, r.err
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return types.Task{}, store.ErrNotFound
	}
	r.tasks[task.ID] = task
	return task, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, taskID, userID int) error {
	if r.err != nil {
		return r.err
	}
	task, ok := r.tasks[taskID]
	if !ok || task.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

type fakeAttachmentRepo struct {
	attachments map[int]types.Attachment
	nextID      int
	createErr   error
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[int]types.Attachment), nextID: 1}
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment types.Attachment) (types.Attachment, error) {
	if r.createErr != nil {
		return types.Attachment{}, r.createErr
	}
	attachment.ID = r.nextID
	r.nextID++
	r.attachments[attachment.ID] = attachment
	return attachment, nil
}

func (r *fakeAttachmentRepo) ListForTask(_ context.Context, taskID int) ([]types.Attachment, error) {
	attachments := make([]types.Attachment, 0)
	for _, attachment := range r.attachments {
		if attachment.TaskID == taskID {
			attachments = append(attachments, attachment)
		}
	}
	sort.Slice(attachments, func(i, j int) bool { return attachments[i].ID < attachments[j].ID })
	return attachments, nil
}

func (r *fakeAttachmentRepo) GetByID(_ context.Context, attachmentID, taskID int) (types.Attachment, error) {
	attachment, ok := r.attachments[attachmentID]
	if !ok || attachment.TaskID != taskID {
		return types.Attachment{}, store.ErrNotFound
	}
	return attachment, nil
}

func (r *fakeAttachmentRepo) Delete(_ context.Context, attachmentID, taskID int) error {
	attachment, ok := r.attachments[attachmentID]
	if !ok || attachment.TaskID != taskID {
		return store.ErrNotFound
	}
	delete(r.attachments, attachment.ID)
	return nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	published []events.TaskEvent
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.TaskEvent) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

// fakeObjectStore keeps object bytes in a map.
type fakeObjectStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) EnsureBucket(context.Context) error { return nil }

func (s *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}
