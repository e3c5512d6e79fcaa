package tests

import (
	"os"
	"testing"

	"github.com/go-playground/validator/v10"

	. "github.com/findmytutor/findmytutor/apps/api/echo"
	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/admin"
	"github.com/findmytutor/findmytutor/core/tutor"
	logsvc "github.com/findmytutor/findmytutor/services/logger"
	"github.com/findmytutor/findmytutor/services/throttle"
	inmemdb "github.com/findmytutor/findmytutor/storage/database/inmem"
)

var (
	db        *inmemdb.DB
	app       *Server
	conf      *core.Config
	tutorRepo tutor.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()

	// set up DB & repos
	db = inmemdb.Open()
	tutorRepo = inmemdb.NewTutorRepository(db)

	app = newServer(conf, throttle.NewMemoryLimiter(conf.Server.LoginMaxAttempts, conf.Server.LoginWindow))

	os.Exit(m.Run())
}

func newServer(conf *core.Config, limiter throttle.Limiter) *Server {
	creds, err := admin.NewCredentials(conf)
	if err != nil {
		panic(err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	admin.InitValidators(validate, translator)

	return NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logsvc.NewNopLogger(),
		TutorSvc:    tutor.NewService(tutorRepo),
		Credentials: creds,
		Limiter:     limiter,
		Validate:    validate,
		Translator:  translator,
	})
}
