package controller

import "time"

// Row — строка таблицы файлов.
type Row struct {
	ID          string
	Name        string
	Size        int64
	UploadedAt  int64
	DownloadURL string
}

// UploadPanel — состояние блока загрузки.
type UploadPanel struct {
	Status Result
	// Тело ответа Storage Service (пусто после сбоя транспорта)
	Output string
}

// ListPanel — состояние блока списка файлов.
type ListPanel struct {
	Status Result
	Rows   []Row
}

// HealthPanel — состояние блока проверки здоровья.
type HealthPanel struct {
	Status Result
	// Тело ответа /health как есть
	Output string
}

// Toast — временное уведомление.
type Toast struct {
	Message   string
	ExpiresAt time.Time
}

// PageState — полное состояние страницы одной браузерной сессии.
type PageState struct {
	Upload UploadPanel
	List   ListPanel
	Health HealthPanel
	Toast  *Toast
}

// clone возвращает копию состояния, не разделяющую срезы и указатели с оригиналом.
func (s PageState) clone() PageState {
	out := s
	if s.List.Rows != nil {
		out.List.Rows = append([]Row(nil), s.List.Rows...)
	}
	if s.Toast != nil {
		t := *s.Toast
		out.Toast = &t
	}
	return out
}
