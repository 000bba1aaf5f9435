// controllers/srv.go
package controllers

import (
	"equiploan/app"
	"equiploan/db"
	"equiploan/jobs"
	"equiploan/jobstate"
)

type Srv struct {
	Repo  *db.Repo
	Jobs  *jobs.Runner
	State *jobstate.Store
	Cfg   app.Config
}

func GetSrv(a *app.App, runner *jobs.Runner, state *jobstate.Store) *Srv {
	return &Srv{
		Repo:  db.NewRepo(a.DB),
		Jobs:  runner,
		State: state,
		Cfg:   a.Config,
	}
}
