// Package artifact пишет итоговые файлы: сначала во временный файл рядом с целевым,
// затем атомарно переименовывает его в публичное имя.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

const pendingPrefix = ".pending-"

// Dir управляет каталогом итоговых файлов.
type Dir struct {
	root string
}

// NewDir создаёт каталог root, если его ещё нет.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("final dir is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create final dir: %w", err)
	}
	return &Dir{root: root}, nil
}

// Path возвращает полный путь итогового файла с именем name.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// Create открывает временный файл для будущего артефакта name.
func (d *Dir) Create(name string) (*Pending, error) {
	// Временное имя не зависит от name: длинное допустимое имя не должно упираться в NAME_MAX.
	tmp := filepath.Join(d.root, pendingPrefix+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create pending artifact: %w", err)
	}

	return &Pending{
		f:      f,
		target: d.Path(name),
	}, nil
}

// Pending описывает незавершённый артефакт. Ровно один из Commit/Abort должен быть вызван.
type Pending struct {
	f      *os.File
	target string
	n      int64
	done   bool
}

func (p *Pending) Write(b []byte) (int, error) {
	n, err := p.f.Write(b)
	p.n += int64(n)
	return n, err
}

// Written возвращает число записанных байт.
func (p *Pending) Written() int64 {
	return p.n
}

// Commit сбрасывает данные на диск, закрывает файл и переименовывает его в целевое имя,
// перезаписывая предыдущую версию.
func (p *Pending) Commit() error {
	if p.done {
		return fmt.Errorf("artifact already finalized")
	}

	err := p.f.Sync()
	if closeErr := p.f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(p.f.Name(), p.target)
	}
	p.done = true
	if err != nil {
		if rmErr := os.Remove(p.f.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierror.Append(err, rmErr)
		}
		return fmt.Errorf("commit artifact: %w", err)
	}

	return nil
}

// Abort закрывает и удаляет временный файл. Повторный вызов ничего не делает.
func (p *Pending) Abort() error {
	if p.done {
		return nil
	}
	p.done = true

	var result error
	if err := p.f.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := os.Remove(p.f.Name()); err != nil && !os.IsNotExist(err) {
		result = multierror.Append(result, err)
	}

	return result
}
