package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

type mockStorage struct {
	objects map[string][]byte
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: make(map[string][]byte)}
}

func (m *mockStorage) PutObject(ctx context.Context, key string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	return "s3://test-bucket/" + key, nil
}

func (m *mockStorage) GetObjectURL(ctx context.Context, location string, expires time.Duration) (string, error) {
	return "https://media.test/" + location, nil
}

func (m *mockStorage) DeleteObject(ctx context.Context, location string) error {
	key := strings.TrimPrefix(location, "s3://test-bucket/")
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("object %s does not exist", key)
	}
	delete(m.objects, key)
	return nil
}

func (m *mockStorage) has(location string) bool {
	_, ok := m.objects[strings.TrimPrefix(location, "s3://test-bucket/")]
	return ok
}
