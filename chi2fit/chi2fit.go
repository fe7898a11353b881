/*

Chi2fit fits a model function to observations by sampling the
chi-square posterior with an affine-invariant ensemble sampler.

The basic usage looks like this:

	chi2fit -r a=0:5 -r b=-5:5 data.txt

, this will fit the linear model a*x+b to the "x y [err]" columns of
data.txt. You can change the model and the sampler settings:

	chi2fit --model power --scale log -r a=-2:2 -r b=-2:2 --burnin 500 --steps 2000 data.txt

To see all the options run:

	chi2fit --help

*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/chiappo/chi2fit/chainplot"
	"bitbucket.org/chiappo/chi2fit/checkpoint"
	"bitbucket.org/chiappo/chi2fit/data"
	"bitbucket.org/chiappo/chi2fit/fitter"
	"bitbucket.org/chiappo/chi2fit/models"
	"bitbucket.org/chiappo/chi2fit/params"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("chi2fit")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("chi2fit", "chi-square MCMC model fitter").Version(version)

	// input
	dataFileName = app.Arg("data", "observations file with x, y and optional error columns ('-' for stdin)").Required().String()
	configF      = app.Flag("config", "read settings from a JSON file (flags take precedence)").ExistingFile()

	// model
	model  = app.Flag("model", "model function ("+fmt.Sprint(models.Names())+"), linear by default").String()
	ranges = app.Flag("range", "parameter range name=lower:upper, one per model parameter").Short('r').Strings()
	prior  = app.Flag("prior", "prior distribution (only uniform)").String()
	scale  = app.Flag("scale", "sampling scale (linear or logarithmic)").String()

	// sampler parameters
	walkers = app.Flag("walkers", "number of walkers (100 by default)").Default("-1").Int()
	burnin  = app.Flag("burnin", "number of burn-in steps (0 by default)").Default("-1").Int()
	steps   = app.Flag("steps", "number of production steps (1000 by default)").Default("-1").Int()
	refine  = app.Flag("refine", "refine the best point with N downhill simplex iterations").Default("-1").Int()

	// technical
	nThreads   = app.Flag("nt", "number of threads to use (1 by default)").Default("-1").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// checkpoint
	dbFile = app.Flag("db", "checkpoint database file").String()
	dbKey  = app.Flag("key", "checkpoint key, data file and model name by default").String()

	// output
	outLogF  = app.Flag("log", "write log to a file").String()
	plotF    = app.Flag("plot", "write histograms and the trace to files with this prefix").String()
	bins     = app.Flag("bins", "number of histogram bins").Default("30").Int()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

func run(s settings) (summary *RunSummary, err error) {
	startTime := time.Now()
	summary = &RunSummary{
		Seed:   s.Seed,
		Model:  s.Model,
		Scale:  s.Scale,
		Config: s.Config,
	}

	obs, err := data.ReadObservationsFile(*dataFileName)
	if err != nil {
		return nil, err
	}
	log.Infof("Read %d observations", obs.Len())
	if !obs.HasErrors() {
		log.Info("No errors given, using model values as variances")
	}

	m, err := models.Get(s.Model)
	if err != nil {
		return nil, err
	}
	log.Infof("Using %s model", m.Name)

	rs, err := parseRanges(s.Ranges, m.Params)
	if err != nil {
		return nil, err
	}
	for _, r := range rs {
		summary.Ranges = append(summary.Ranges, r.String())
	}
	pr, err := params.ParsePrior(s.Prior)
	if err != nil {
		return nil, err
	}
	sc, err := params.ParseScale(s.Scale)
	if err != nil {
		return nil, err
	}

	space, err := params.NewSpace(rs, pr, sc, s.Walkers, params.NewRand(s.Seed))
	if err != nil {
		return nil, err
	}
	e, err := fitter.New(space, m.Func, obs, s.Config)
	if err != nil {
		return nil, err
	}

	if *dbFile != "" {
		db, err := bolt.Open(*dbFile, 0666, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, errors.Wrap(err, "cannot open checkpoint database")
		}
		defer db.Close()
		key := *dbKey
		if key == "" {
			key = filepath.Base(*dataFileName) + "/" + s.Model
		}
		log.Infof("Checkpoint key: %s", key)
		e.SetCheckpoint(checkpoint.NewCheckpointIO(db, []byte(key)))
	}

	res, err := e.Run()
	if err != nil {
		return nil, err
	}
	summary.Best = paramMap(res.Names, res.Best)
	summary.BestLnP = res.BestLogProb
	summary.Kept = len(res.LogProbs)
	summary.Filtered = res.Filtered
	for i, name := range res.Names {
		log.Noticef("%s=%g", name, res.Best[i])
	}
	log.Noticef("lnP=%f", res.BestLogProb)

	if sum, err := e.Summarize(res); err != nil {
		log.Warning("Cannot summarize the fit:", err)
	} else {
		summary.Summary = sum
		log.Noticef("chi2=%f, dof=%d, reduced chi2=%f, p-value=%g", sum.Chi2, sum.DoF, sum.ReducedChi2, sum.PValue)
		for _, p := range sum.Parameters {
			log.Infof("%s: median=%g, 68%% interval=[%g, %g]", p.Name, p.Median, p.Lower, p.Upper)
		}
	}

	if s.Refine > 0 {
		ref, err := e.Refine(res, s.Refine)
		if err != nil {
			log.Error("Error refining the best point:", err)
		} else {
			summary.Refined = paramMap(res.Names, ref.Best)
			summary.RefinedLnP = ref.LogProb
			log.Noticef("Refined: %v, lnP=%f", ref.Best, ref.LogProb)
		}
	}

	if *plotF != "" {
		files, err := chainplot.Histograms(res, *plotF, *bins)
		summary.Plots = append(summary.Plots, files...)
		if err != nil {
			log.Error("Error plotting histograms:", err)
		}
		trace := *plotF + "trace.png"
		if err := chainplot.Trace(res, trace); err != nil {
			log.Error("Error plotting trace:", err)
		} else {
			summary.Plots = append(summary.Plots, trace)
		}
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return summary, nil
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range []string{"chi2fit", "fitter", "ensemble", "params", "checkpoint", "data", "chainplot"} {
		logging.SetLevel(level, module)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	s := defaultSettings()
	if *configF != "" {
		if err := readSettings(*configF, &s); err != nil {
			log.Fatal(err)
		}
	}
	s.applyFlags()

	if s.Seed < 0 {
		s.Seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", s.Seed)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	summary, err := run(s)
	if err != nil {
		log.Fatal(err)
	}
	summary.Version = version
	summary.CommandLine = os.Args

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
