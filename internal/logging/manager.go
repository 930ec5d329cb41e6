package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Component — подсистема мира с собственным логгером и файлом
type Component string

const (
	ComponentWorld   Component = "world"   // сессия: спавн, генерация, наблюдатель
	ComponentStream  Component = "stream"  // загрузка и выгрузка тайлов
	ComponentPhysics Component = "physics" // контроллер наблюдателя
	ComponentAPI     Component = "api"     // HTTP-инспекция
	ComponentEvents  Component = "events"  // шина событий мира
)

// Components перечисляет все подсистемы в порядке вывода
var Components = []Component{ComponentWorld, ComponentStream, ComponentPhysics, ComponentAPI, ComponentEvents}

// ParseComponent проверяет имя подсистемы
func ParseComponent(name string) (Component, error) {
	for _, c := range Components {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("неизвестная подсистема %q", name)
}

// Registry держит по одному логгеру на подсистему
type Registry struct {
	mu      sync.Mutex
	loggers map[Component]*Logger
}

// NewRegistry создаёт пустой реестр логгеров
func NewRegistry() *Registry {
	return &Registry{loggers: make(map[Component]*Logger)}
}

var (
	globalRegistry *Registry
	registryOnce   sync.Once
)

// Loggers возвращает глобальный реестр логгеров подсистем
func Loggers() *Registry {
	registryOnce.Do(func() { globalRegistry = NewRegistry() })
	return globalRegistry
}

// For возвращает логгер подсистемы из глобального реестра
func For(c Component) *Logger {
	return Loggers().For(c)
}

// For возвращает логгер подсистемы, создавая его при первом обращении.
// Если файл лога открыть не удалось, логгер пишет только в консоль.
func (r *Registry) For(c Component) *Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.loggers[c]; ok {
		return l
	}
	l, err := NewLogger(string(c))
	if err != nil {
		current().log(WARN, "Логгер %s без файла: %v", c, err)
		opts := currentOptions()
		l = &Logger{
			component:       string(c),
			consoleLogger:   current().consoleLogger,
			minConsoleLevel: opts.consoleLevel(c),
			minFileLevel:    ERROR,
		}
	}
	r.loggers[c] = l
	return l
}

// Active возвращает подсистемы, для которых уже создан логгер
func (r *Registry) Active() []Component {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Component, 0, len(r.loggers))
	for c := range r.loggers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetLevel меняет уровни уже созданного логгера подсистемы
func (r *Registry) SetLevel(c Component, console, file LogLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.loggers[c]
	if !ok {
		return fmt.Errorf("логгер подсистемы %s не создан", c)
	}
	l.minConsoleLevel = console
	l.minFileLevel = file
	return nil
}

// CloseAll закрывает файлы всех логгеров и очищает реестр
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for c, l := range r.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", c, err))
		}
	}
	r.loggers = make(map[Component]*Logger)
	return errors.Join(errs...)
}
