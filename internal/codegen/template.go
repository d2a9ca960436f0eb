package codegen

import "text/template"

var cellModelTemplate = template.Must(template.New("cellmodel").Parse(`
"""This module contains a {{.ClassName}} cardiac cell model

The module was autogenerated from a gotran ode file
"""
from __future__ import division
from collections import OrderedDict
import ufl

from xalbrain.dolfinimport import *
from xalbrain.cellmodels import CardiacCellModel

class {{.ClassName}}(CardiacCellModel):
    def __init__(self, params=None, init_conditions=None):
        """
        Create cardiac cell model

        *Arguments*
         params (dict, optional)
           optional model parameters
         init_conditions (dict, optional)
           optional initial conditions
        """
        CardiacCellModel.__init__(self, params, init_conditions)

    @staticmethod
    def default_parameters():
        "Set-up and return default parameters."
{{.ParamsDict}}
        return params

    @staticmethod
    def default_initial_conditions():
        "Set-up and return default initial conditions."
{{.ICDict}}
        return ic

    def _I(self, v, s, time):
        """
        Original gotran transmembrane current d{{.V}}/dt
        """
        time = time if time else Constant(0.0)

        # Assign states
        {{.V}} = v
        assert(len(s) == {{.NumStates}})
{{- if .Unpack}}
        {{.Unpack}}
{{- end}}
{{- if .IParams}}

        # Assign parameters
{{- range .IParams}}
        {{.}} = self._parameters["{{.}}"]
{{- end}}
{{- end}}

        # Init return args
        current = [ufl.zero()]*1
{{range .IBlocks}}
        # {{.Comment}}
{{- range .Lines}}
        {{.}}
{{- end}}
{{end}}
        # Return results
        return current[0]

    def I(self, v, s, time=None):
        """
        Transmembrane current

           I = -d{{.V}}/dt

        """
        return -self._I(v, s, time)

    def F(self, v, s, time=None):
        """
        Right hand side for ODE system
        """
        time = time if time else Constant(0.0)

        # Assign states
        {{.V}} = v
        assert(len(s) == {{.NumStates}})
{{- if .Unpack}}
        {{.Unpack}}
{{- end}}
{{- if .FParams}}

        # Assign parameters
{{- range .FParams}}
        {{.}} = self._parameters["{{.}}"]
{{- end}}
{{- end}}

        # Init return args
        F_expressions = [ufl.zero()]*{{.NumStates}}
{{range .FBlocks}}
        # {{.Comment}}
{{- range .Lines}}
        {{.}}
{{- end}}
{{end}}
        # Return results
        return dolfin.as_vector(F_expressions)

    def num_states(self):
        return {{.NumStates}}

    def __str__(self):
        return '{{.ClassName}} cardiac cell model'
`))
