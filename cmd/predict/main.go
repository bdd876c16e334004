// Command predict post-processes a trained river model's outputs into
// physical-unit prediction tables and, when observation files are given,
// evaluates them. It runs the test period first, then the training period,
// matching the trainer's invocation.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jsadler2/drb-dl-model/data"
	"github.com/jsadler2/drb-dl-model/metrics"
	"github.com/jsadler2/drb-dl-model/model"
	"github.com/jsadler2/drb-dl-model/postproc"
)

func main() {
	outdir := flag.String("o", "", "directory where the output files are written")
	tagFlag := flag.String("t", "", "tag appended to the end of output file names")
	dev := flag.Bool("d", false, "halve the tst period so the rest stays held out")
	inFile := flag.String("i", "", "prepared input data archive ([something].npz)")
	loggedQ := flag.Bool("l", false, "the model predicted log discharge; exponentiate it back during unscaling")
	weightsDir := flag.String("w", "", "directory holding the trained weights and exported y_hat_{trn,tst} arrays")
	hiddenUnits := flag.Int("u", 20, "number of hidden units the model was trained with")
	obsTemp := flag.String("obs-temp", "", "temperature observations CSV (enables evaluation)")
	obsFlow := flag.String("obs-flow", "", "discharge observations CSV (enables evaluation)")
	plots := flag.Bool("plots", false, "write diagnostic PNGs alongside the metric files")
	flag.Parse()

	if *inFile == "" || *weightsDir == "" || *outdir == "" {
		flag.Usage()
		os.Exit(2)
	}

	runTag := *tagFlag
	if runTag != "" {
		runTag = "_" + runTag
	}

	if err := os.MkdirAll(*outdir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	bundle, err := data.LoadBundle(*inFile)
	if err != nil {
		log.Fatalf("load input data: %v", err)
	}
	log.Printf("loaded %s: %d segments, trn [%d, %d], tst [%d, %d], hidden units %d",
		*inFile, bundle.NumSegments, bundle.XTrn.B, bundle.XTrn.T, bundle.XTst.B, bundle.XTst.T, *hiddenUnits)

	opts := postproc.Options{
		OutDir:   *outdir,
		RunTag:   runTag,
		LoggedQ:  *loggedQ,
		HalfTest: *dev,
	}

	for _, tag := range []data.Tag{data.TagTest, data.TagTrain} {
		predictor, err := model.OpenExported(*weightsDir, tag, runTag)
		if err != nil {
			log.Fatalf("open model outputs for %s: %v", tag, err)
		}

		predFile, err := postproc.RunPredict(predictor, bundle, tag, opts)
		if err != nil {
			log.Fatalf("predict %s: %v", tag, err)
		}
		log.Printf("wrote %s predictions to %s", tag, predFile)

		if *obsTemp == "" || *obsFlow == "" {
			continue
		}
		rec, err := metrics.RunEval(predFile, tag, metrics.EvalOptions{
			OutDir:      *outdir,
			RunTag:      runTag,
			ObsTempFile: *obsTemp,
			ObsFlowFile: *obsFlow,
			Plots:       *plots,
		})
		if err != nil {
			log.Fatalf("evaluate %s: %v", tag, err)
		}
		fmt.Printf("%s metrics: rmse_temp=%.4f rmse_flow=%.4f nse_temp=%.4f nse_flow=%.4f\n",
			tag, rec.RMSETemp, rec.RMSEFlow, rec.NSETemp, rec.NSEFlow)
	}
}
