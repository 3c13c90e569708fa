package alpm

// Handle is the engine's single point of context: the install root, the
// local database, the configured sync repositories, and the callbacks
// the caller wants notified. Nothing in this package keeps process-
// global state; every operation threads through a *Handle (§5, §9).
type Handle struct {
	Root   string // install root, e.g. "/"
	DBPath string // database directory, e.g. "/var/lib/pacman"
	CacheDirs []string

	Local *LocalDatabase
	Repos []*Repository

	SkipRemove *SkipList // skip_remove glob patterns
	NoUpgrade  *SkipList // NoUpgrade glob patterns
	NoExtract  *SkipList // NoExtract glob patterns

	IgnorePkgs map[string]bool

	OnEvent    EventHandler
	OnQuestion QuestionHandler

	lock *LockFile
}

// NewHandle constructs a Handle for the given install root and
// database path, with empty repositories and skip lists; callers
// populate Repos and the skip lists after loading configuration.
func NewHandle(root, dbPath string) *Handle {
	return &Handle{
		Root:       root,
		DBPath:     dbPath,
		Local:      NewLocalDatabase(root),
		SkipRemove: NewSkipList(nil),
		NoUpgrade:  NewSkipList(nil),
		NoExtract:  NewSkipList(nil),
		IgnorePkgs: make(map[string]bool),
		lock:       NewLockFile(dbPath),
	}
}

// Lock acquires the handle's db.lck, failing immediately if another
// process already holds it (§5).
func (h *Handle) Lock() (bool, error) {
	return h.lock.TryLock()
}

// Unlock releases the handle's db.lck.
func (h *Handle) Unlock() error {
	return h.lock.Unlock()
}

func (h *Handle) emit(e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

func (h *Handle) ask(q *Question) bool {
	if h.OnQuestion == nil {
		return q.Default
	}
	return h.OnQuestion(q)
}

// Universe builds the resolver's view of this handle's local database
// and sync repositories.
func (h *Handle) Universe() *Universe {
	return &Universe{Local: h.Local, Repos: h.Repos}
}
