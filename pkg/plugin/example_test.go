package plugin_test

import (
	"context"
	"fmt"

	"github.com/openfroyo/streamd/pkg/config"
	"github.com/openfroyo/streamd/pkg/plugin"
)

func ExampleCatalog_Build() {
	catalog, err := plugin.NewDefaultCatalog(nil)
	if err != nil {
		panic(err)
	}

	root, err := config.Parse(`
<source>
  type forward
</source>
<match **>
  type stdout
  output_typ hash
</match>
`, "agent.conf")
	if err != nil {
		panic(err)
	}

	p, err := catalog.Build(context.Background(), root)
	if err != nil {
		panic(err)
	}

	for _, comp := range p.Components {
		fmt.Println(comp.Kind, comp.Type)
	}
	for _, u := range p.Unused {
		fmt.Printf("parameter '%s' in %s is not used\n", u.Key, u.Block)
	}
	// Output:
	// input forward
	// output stdout
	// parameter 'output_typ' in <match **> is not used
}
